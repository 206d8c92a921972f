package synth

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/frontdesk-labs/frontdesk-core/internal/audio"
)

func TestPreviewHandlerReturnsWAV(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewPreviewHandler(NewMockSynth(24000, 1), 24000, 1, logger)

	req := httptest.NewRequest("GET", "/speak?text=hello+there", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/wav" {
		t.Fatalf("unexpected content type %q", got)
	}
	pcm, rate, channels, err := audio.UnwrapPCM(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a wav file: %v", err)
	}
	if rate != 24000 || channels != 1 {
		t.Fatalf("unexpected format %d/%d", rate, channels)
	}
	if len(pcm) != 2*len("hello there") {
		t.Fatalf("unexpected pcm length %d", len(pcm))
	}
}

func TestPreviewHandlerRequiresText(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewPreviewHandler(NewMockSynth(24000, 1), 24000, 1, logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/speak", nil))
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
