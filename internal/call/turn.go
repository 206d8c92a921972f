package call

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/agent"
	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
)

// handleUtterance processes one recognized caller utterance end to end. It
// runs on the turn queue, so at most one invocation is in flight per call;
// cache and agents belong to this call alone.
func (h *Handler) handleUtterance(ctx context.Context, ch Channel, sess *session.Session, cache *intake.Cache, agents *agent.Registry, text string) error {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	logger := h.logger.With(slog.String("session_id", sess.ID))
	logger.Info("caller said", slog.String("text", clean))
	h.deps.Tracker.TurnProcessed(ctx)

	sess.AddTurn(session.RoleCaller, clean)
	h.record(sess.ID, session.RoleCaller, clean)
	h.tap(protocol.SubjectCallTranscript, protocol.TapEvent{
		SessionID: sess.ID,
		Kind:      "transcript",
		Role:      session.RoleCaller,
		Text:      clean,
	})

	// Extraction failure degrades to an empty fragment; the request
	// fallback below still applies.
	var fragment protocol.Lead
	if res := cache.Extract(ctx, clean); res != nil {
		fragment = res.Lead
	}
	changed := intake.MergeLead(&sess.Lead, fragment, clean)

	transcript := protocol.Transcript{
		Type:      protocol.EventTranscript,
		Role:      session.RoleCaller,
		Text:      clean,
		SessionID: sess.ID,
	}
	if changed {
		lead := sess.Lead
		transcript.Lead = &lead
	}
	if err := ch.SendEvent(transcript); err != nil {
		return err
	}

	label := h.deps.Router.Classify(ctx, clean)
	ag := agents.Route(label)
	if err := ch.SendEvent(protocol.Intent{
		Type:   protocol.EventIntent,
		Intent: label,
		Agent:  ag.Name(),
	}); err != nil {
		return err
	}

	prompt, err := ag.BuildPrompt(ctx, sess, clean)
	if err != nil {
		return err
	}
	return h.streamReply(ctx, ch, sess, prompt)
}
