package call

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frontdesk-labs/frontdesk-core/internal/agent"
	"github.com/frontdesk-labs/frontdesk-core/internal/audio"
	"github.com/frontdesk-labs/frontdesk-core/internal/generation"
	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/intent"
	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
	"github.com/frontdesk-labs/frontdesk-core/internal/stt"
	"github.com/frontdesk-labs/frontdesk-core/internal/synth"
	"github.com/frontdesk-labs/frontdesk-core/internal/turnqueue"
)

// turnErrorText is sent when turn processing fails outside the generation
// fallback path.
const turnErrorText = "I hit a snag responding. Mind trying that once more?"

// Tap receives a copy of call events for operators. Implementations must
// not block.
type Tap interface {
	Publish(subject string, event protocol.TapEvent)
}

// Recorder persists call activity, such as the sqlite call log.
// Implementations must not block the turn path.
type Recorder interface {
	RecordTurn(sessionID, role, text string)
}

// Deps carries the collaborators a Handler wires into each connection.
// NewRecognizer, NewCache, and NewAgents are invoked once per call: every
// connection owns its own recognizer, extraction cache, and agent registry,
// so one caller's cached extraction never evicts another's.
type Deps struct {
	NewRecognizer func() stt.Recognizer
	NewCache      func() *intake.Cache
	NewAgents     func(cache *intake.Cache) *agent.Registry
	Router        *intent.Router
	Generator     generation.Generator
	Synth         synth.Synthesizer
	Tracker       *Tracker
	Tap           Tap      // optional
	Recorder      Recorder // optional
}

// Handler upgrades HTTP requests into call connections.
type Handler struct {
	deps     Deps
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "call.handler")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slogError(err))
		return
	}
	h.serve(r.Context(), newWSChannel(conn), conn)
}

func (h *Handler) serve(parent context.Context, ch Channel, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sess := session.New()
	logger := h.logger.With(slog.String("session_id", sess.ID))
	logger.Info("caller connected")

	h.deps.Tracker.CallStarted()
	defer h.deps.Tracker.CallEnded()
	h.tap(protocol.SubjectCallStarted, protocol.TapEvent{SessionID: sess.ID, Kind: "started"})
	defer h.tap(protocol.SubjectCallEnded, protocol.TapEvent{SessionID: sess.ID, Kind: "ended"})

	if err := ch.SendEvent(protocol.SessionStarted{
		Type:      protocol.EventSessionStarted,
		SessionID: sess.ID,
	}); err != nil {
		logger.Warn("failed to greet caller", slogError(err))
		ch.Close()
		return
	}

	rec := h.deps.NewRecognizer()
	relay := audio.NewRelay(rec.Send)
	defer relay.Shutdown()
	defer rec.Close()

	cache := h.deps.NewCache()
	agents := h.deps.NewAgents(cache)

	queue := turnqueue.New(func(err error) {
		logger.Error("turn processing failed", slogError(err))
		_ = ch.SendEvent(protocol.Error{Type: protocol.EventError, Message: turnErrorText})
	})
	defer queue.Close()

	// The recognizer dials out; audio arriving before it is up stays in
	// the relay and is flushed in arrival order once it opens.
	go h.startRecognizer(ctx, rec, relay, ch, logger)

	go func() {
		for utt := range rec.Transcripts() {
			text := utt.Text
			queue.Enqueue(func() error {
				return h.handleUtterance(ctx, ch, sess, cache, agents, text)
			})
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("caller disconnected", slog.Duration("call", time.Since(sess.CreatedAt)))
			ch.Close()
			return
		}
		if len(data) == 0 {
			continue
		}
		// Browser clients sometimes ship whole WAV blobs; unwrap those to
		// raw PCM before relaying.
		if bytes.HasPrefix(data, []byte("RIFF")) {
			if pcm, _, _, err := audio.UnwrapPCM(data); err == nil {
				data = pcm
			}
		}
		if err := relay.Submit(data); err != nil {
			logger.Warn("audio relay failed", slogError(err))
		}
	}
}

// startRecognizer dials the recognizer and flushes the relay backlog once it
// is up. If the recognizer never comes up, or the flush fails, the relay is
// shut down so inbound frames stop accumulating for the rest of the call.
func (h *Handler) startRecognizer(ctx context.Context, rec stt.Recognizer, relay *audio.Relay, ch Channel, logger *slog.Logger) {
	if err := rec.Start(ctx); err != nil {
		logger.Error("recognizer start failed", slogError(err))
		relay.Shutdown()
		_ = ch.SendEvent(protocol.Error{Type: protocol.EventError, Message: turnErrorText})
		return
	}
	if err := relay.Open(); err != nil {
		logger.Warn("audio backlog flush failed", slogError(err))
		relay.Shutdown()
	}
}

func (h *Handler) tap(subject string, event protocol.TapEvent) {
	if h.deps.Tap == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	h.deps.Tap.Publish(subject, event)
}

func (h *Handler) record(sessionID, role, text string) {
	if h.deps.Recorder == nil {
		return
	}
	h.deps.Recorder.RecordTurn(sessionID, role, text)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
