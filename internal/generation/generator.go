// Package generation produces streamed reply text for a turn. Backends are
// pluggable: mock, gemini, or an external command.
package generation

import (
	"context"
)

// Request describes one reply generation.
type Request struct {
	SessionID   string
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

// Fragment is one streamed piece of reply text.
type Fragment struct {
	Text string
}

// Generator is a pluggable reply backend. Generate opens a stream and
// returns its fragment and error channels; both are closed when the stream
// ends. An error returned directly means the stream never opened, which is
// the only failure the retry layer will re-attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) (<-chan Fragment, <-chan error, error)
}
