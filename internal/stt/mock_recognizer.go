package stt

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"
)

// mockRecognizer finalizes every audio payload immediately. Payloads that
// are valid UTF-8 are echoed back as the transcript, which lets a client
// drive a whole conversation by sending text frames as audio.
type mockRecognizer struct {
	mu      sync.Mutex
	results chan Utterance
	started bool
	closed  bool
}

func NewMockRecognizer() Recognizer {
	return &mockRecognizer{results: make(chan Utterance, 16)}
}

func (m *mockRecognizer) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *mockRecognizer) Send(pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.closed {
		return fmt.Errorf("recognizer not started")
	}
	text := fmt.Sprintf("[utterance length=%d]", len(pcm))
	if utf8.Valid(pcm) {
		text = string(pcm)
	}
	select {
	case m.results <- Utterance{Text: text, Confidence: 1}:
	default:
	}
	return nil
}

func (m *mockRecognizer) Transcripts() <-chan Utterance {
	return m.results
}

func (m *mockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.results)
	return nil
}
