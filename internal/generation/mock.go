package generation

import (
	"context"
	"strings"
	"time"
)

type mockGenerator struct{}

// NewMockGenerator returns a backend that streams a canned reply in a few
// fragments, used for local development without provider credentials.
func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, req Request) (<-chan Fragment, <-chan error, error) {
	pieces := []string{
		"Thanks for calling. ",
		"I can help with that. ",
		"[mock reply for: " + firstWords(req.Prompt, 8) + "]",
	}
	frags := make(chan Fragment, len(pieces))
	errs := make(chan error, 1)
	go func() {
		defer close(frags)
		defer close(errs)
		for _, piece := range pieces {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			select {
			case frags <- Fragment{Text: piece}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frags, errs, nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
