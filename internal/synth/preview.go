package synth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/audio"
)

// PreviewHandler answers GET /speak?text=... with a WAV rendering of the
// configured voice. Operators use it to audition voice settings without
// placing a call.
type PreviewHandler struct {
	synth      Synthesizer
	sampleRate int
	channels   int
	logger     *slog.Logger
}

func NewPreviewHandler(s Synthesizer, sampleRate, channels int, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		synth:      s,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger.With(slog.String("component", "synth.preview")),
	}
}

func (p *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		http.Error(w, "missing text parameter", http.StatusBadRequest)
		return
	}

	chunks, errs := p.synth.Synthesize(r.Context(), SynthRequest{Text: text})
	var pcm []byte
	for chunk := range chunks {
		pcm = append(pcm, chunk.PCM...)
	}
	if err := <-errs; err != nil {
		p.logger.Warn("preview synthesis failed", slog.String("error", err.Error()))
		http.Error(w, "synthesis failed", http.StatusBadGateway)
		return
	}

	wavData, err := audio.WrapPCM(pcm, p.sampleRate, p.channels)
	if err != nil {
		p.logger.Warn("wav encoding failed", slog.String("error", err.Error()))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	_, _ = w.Write(wavData)
}
