// Package stt turns caller audio into finalized transcripts. Recognizers
// are live: audio is pushed as it arrives and utterances come back on a
// channel once the backend finalizes them.
package stt

import "context"

// Utterance is one finalized caller transcript.
type Utterance struct {
	Text       string
	Confidence float64
}

// Recognizer abstracts live STT backends. Send must not be called before
// Start returns; Transcripts is closed when the backend ends the stream or
// Close is called.
type Recognizer interface {
	Start(ctx context.Context) error
	Send(pcm []byte) error
	Transcripts() <-chan Utterance
	Close() error
}
