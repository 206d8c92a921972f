package call

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/generation"
	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
	"github.com/frontdesk-labs/frontdesk-core/internal/synth"
)

const (
	// stillWorkingText covers a generation stream that opened but produced
	// nothing. The turn ends here: no audio, no history, no completion.
	stillWorkingText = "Still with you - let me rephrase that in a second."
	// fallbackText is spoken when generation fails outright.
	fallbackText = "I'm reconnecting to our assistant. Could you please repeat that while I reset?"
)

// streamReply drives one generation stream, relaying aggregate text and
// per-fragment audio as they arrive. Text events carry the full reply so
// far; audio for fragment k is synthesized before fragment k+1 is relayed.
func (h *Handler) streamReply(ctx context.Context, ch Channel, sess *session.Session, prompt string) error {
	logger := h.logger.With(slog.String("session_id", sess.ID))

	frags, errs, err := h.deps.Generator.Generate(ctx, generation.Request{
		SessionID: sess.ID,
		Prompt:    prompt,
	})
	if err != nil {
		logger.Error("generation failed", slogError(err))
		return h.speakFallback(ctx, ch, sess)
	}

	var aggregate strings.Builder
	received := false
	for frag := range frags {
		if strings.TrimSpace(frag.Text) == "" {
			continue
		}
		received = true
		aggregate.WriteString(frag.Text)
		if err := ch.SendEvent(protocol.AgentText{
			Type: protocol.EventAgentText,
			Text: aggregate.String(),
		}); err != nil {
			return err
		}
		h.relayAudio(ctx, ch, sess.ID, frag.Text)
	}
	if err := <-errs; err != nil {
		logger.Error("generation stream broke", slogError(err))
		return h.speakFallback(ctx, ch, sess)
	}

	if !received {
		logger.Warn("generation produced no output")
		return ch.SendEvent(protocol.AgentText{
			Type: protocol.EventAgentText,
			Text: stillWorkingText,
		})
	}

	final := strings.TrimSpace(aggregate.String())
	return h.completeTurn(ch, sess, final)
}

// speakFallback delivers the scripted recovery line through the normal
// reply path so the caller still hears audio and sees a completion.
func (h *Handler) speakFallback(ctx context.Context, ch Channel, sess *session.Session) error {
	h.deps.Tracker.TurnFailed(ctx)
	if err := ch.SendEvent(protocol.AgentText{
		Type: protocol.EventAgentText,
		Text: fallbackText,
	}); err != nil {
		return err
	}
	h.relayAudio(ctx, ch, sess.ID, fallbackText)
	return h.completeTurn(ch, sess, fallbackText)
}

func (h *Handler) completeTurn(ch Channel, sess *session.Session, text string) error {
	sess.AddTurn(session.RoleAgent, text)
	h.record(sess.ID, session.RoleAgent, text)
	h.tap(protocol.SubjectCallReply, protocol.TapEvent{
		SessionID: sess.ID,
		Kind:      "reply",
		Role:      session.RoleAgent,
		Text:      text,
	})
	return ch.SendEvent(protocol.AgentComplete{
		Type: protocol.EventAgentComplete,
		Text: text,
		Lead: sess.Lead,
	})
}

// relayAudio synthesizes one fragment and forwards its PCM in order.
// Synthesis problems are logged and the reply continues as text only;
// remaining audio is dropped once the caller is gone.
func (h *Handler) relayAudio(ctx context.Context, ch Channel, sessionID, text string) {
	logger := h.logger.With(slog.String("session_id", sessionID))
	chunks, errs := h.deps.Synth.Synthesize(ctx, synth.SynthRequest{
		SessionID: sessionID,
		Text:      text,
	})
	for chunk := range chunks {
		if !ch.Open() {
			// Drain so the synthesizer goroutine can finish.
			continue
		}
		if len(chunk.PCM) == 0 {
			continue
		}
		if err := ch.SendAudio(chunk.PCM); err != nil {
			logger.Warn("audio send failed", slogError(err))
		}
	}
	if err := <-errs; err != nil {
		logger.Warn("synthesis failed", slogError(err))
	}
}
