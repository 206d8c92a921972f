package call

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/frontdesk-labs/frontdesk-core/internal/agent"
	"github.com/frontdesk-labs/frontdesk-core/internal/generation"
	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/intent"
	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
	"github.com/frontdesk-labs/frontdesk-core/internal/synth"
)

// fakeChannel records everything sent to the caller, in order.
type fakeChannel struct {
	mu     sync.Mutex
	events []map[string]any
	audio  [][]byte
	order  []string // "event:<type>" and "audio" entries interleaved
	closed bool
}

func (c *fakeChannel) SendEvent(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, decoded)
	c.order = append(c.order, "event:"+decoded["type"].(string))
	return nil
}

func (c *fakeChannel) SendAudio(pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = append(c.audio, append([]byte(nil), pcm...))
	c.order = append(c.order, "audio")
	return nil
}

func (c *fakeChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.events))
	for _, e := range c.events {
		types = append(types, e["type"].(string))
	}
	return types
}

// leadExtractor returns a fixed extraction result.
type leadExtractor struct {
	result *intake.Result
}

func (e *leadExtractor) Extract(ctx context.Context, text string) (*intake.Result, error) {
	return e.result, nil
}

// countingExtractor reports how often extraction actually runs.
type countingExtractor struct {
	mu    sync.Mutex
	calls int
}

func (e *countingExtractor) Extract(ctx context.Context, text string) (*intake.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return &intake.Result{Lead: protocol.Lead{Request: text}}, nil
}

func (e *countingExtractor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type stubClassifier struct {
	label string
	err   error
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (string, error) {
	return s.label, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T, gen generation.Generator, extractor intake.Extractor, label string) *Handler {
	t.Helper()
	logger := testLogger()
	kb, err := agent.LoadKnowledgeBase("")
	if err != nil {
		t.Fatalf("load kb: %v", err)
	}
	calendar := agent.NewCalendar(nil)
	tracker, err := NewTracker()
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	return NewHandler(Deps{
		NewCache: func() *intake.Cache { return intake.NewCache(extractor, logger) },
		NewAgents: func(cache *intake.Cache) *agent.Registry {
			return agent.NewRegistry(
				agent.NewBookingAgent(kb, calendar, cache, logger),
				agent.NewEnquiryAgent(kb, logger),
			)
		},
		Router:    intent.NewRouter(&stubClassifier{label: label}, logger),
		Generator: gen,
		Synth:     synth.NewMockSynth(24000, 1),
		Tracker:   tracker,
	}, logger)
}

// runTurn feeds one utterance through the handler with call-scoped state,
// wired the same way serve does it.
func runTurn(t *testing.T, h *Handler, ch Channel, sess *session.Session, text string) error {
	t.Helper()
	cache := h.deps.NewCache()
	agents := h.deps.NewAgents(cache)
	return h.handleUtterance(context.Background(), ch, sess, cache, agents, text)
}

type fragmentGenerator struct {
	fragments []string
	createErr error
	streamErr error
}

func (g *fragmentGenerator) Generate(ctx context.Context, req generation.Request) (<-chan generation.Fragment, <-chan error, error) {
	if g.createErr != nil {
		return nil, nil, g.createErr
	}
	frags := make(chan generation.Fragment, len(g.fragments))
	errs := make(chan error, 1)
	for _, f := range g.fragments {
		frags <- generation.Fragment{Text: f}
	}
	if g.streamErr != nil {
		errs <- g.streamErr
	}
	close(frags)
	close(errs)
	return frags, errs, nil
}

// echoPromptGenerator answers every request with a single fragment.
type echoPromptGenerator struct{}

func (g *echoPromptGenerator) Generate(ctx context.Context, req generation.Request) (<-chan generation.Fragment, <-chan error, error) {
	frags := make(chan generation.Fragment, 1)
	frags <- generation.Fragment{Text: "answered"}
	close(frags)
	errs := make(chan error)
	close(errs)
	return frags, errs, nil
}

func TestTurnEventOrdering(t *testing.T) {
	gen := &fragmentGenerator{fragments: []string{"We are open ", "weekdays 6am to 8pm."}}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}
	sess := session.New()

	if err := runTurn(t, h, ch, sess, "what are your hours?"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	want := []string{
		protocol.EventTranscript,
		protocol.EventIntent,
		protocol.EventAgentText,
		protocol.EventAgentText,
		protocol.EventAgentComplete,
	}
	got := ch.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Audio for fragment k lands before fragment k+1's text event.
	wantOrder := []string{
		"event:transcript", "event:intent",
		"event:agent_text", "audio",
		"event:agent_text", "audio",
		"event:agent_complete",
	}
	if len(ch.order) != len(wantOrder) {
		t.Fatalf("expected order %v, got %v", wantOrder, ch.order)
	}
	for i := range wantOrder {
		if ch.order[i] != wantOrder[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantOrder[i], ch.order[i])
		}
	}
}

func TestTurnAggregateTextGrows(t *testing.T) {
	gen := &fragmentGenerator{fragments: []string{"Hello. ", "How can I help?"}}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}

	if err := runTurn(t, h, ch, session.New(), "hi there"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var texts []string
	for _, e := range ch.events {
		if e["type"] == protocol.EventAgentText {
			texts = append(texts, e["text"].(string))
		}
	}
	if len(texts) != 2 {
		t.Fatalf("expected 2 text events, got %d", len(texts))
	}
	if texts[0] != "Hello. " || texts[1] != "Hello. How can I help?" {
		t.Fatalf("aggregate not cumulative: %v", texts)
	}

	last := ch.events[len(ch.events)-1]
	if last["type"] != protocol.EventAgentComplete || last["text"] != "Hello. How can I help?" {
		t.Fatalf("unexpected completion %v", last)
	}
}

func TestTurnLeadAttachedOnlyWhenChanged(t *testing.T) {
	extractor := &leadExtractor{result: &intake.Result{Lead: protocol.Lead{Name: "Priya", Phone: "0400123123"}}}
	gen := &fragmentGenerator{fragments: []string{"Thanks Priya."}}
	h := newTestHandler(t, gen, extractor, intent.LabelEnquiry)
	ch := &fakeChannel{}
	sess := session.New()

	if err := runTurn(t, h, ch, sess, "my name is Priya, 0400123123"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	transcript := ch.events[0]
	lead, ok := transcript["lead"].(map[string]any)
	if !ok {
		t.Fatalf("expected lead on transcript, got %v", transcript)
	}
	if lead["name"] != "Priya" || lead["phone"] != "0400123123" {
		t.Fatalf("unexpected lead %v", lead)
	}
	if sess.Lead.Name != "Priya" {
		t.Fatalf("session lead not merged: %+v", sess.Lead)
	}

	// Second turn with nothing new: the request fallback only fires for a
	// longer utterance, so a shorter one must not re-attach the lead.
	ch2 := &fakeChannel{}
	extractor.result = nil
	if err := runTurn(t, h, ch2, sess, "ok"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := ch2.events[0]["lead"]; ok {
		t.Fatalf("lead attached without change: %v", ch2.events[0])
	}

	// Completion always carries the snapshot.
	last := ch2.events[len(ch2.events)-1]
	if last["type"] != protocol.EventAgentComplete {
		t.Fatalf("expected completion, got %v", last)
	}
	if lead, ok := last["lead"].(map[string]any); !ok || lead["name"] != "Priya" {
		t.Fatalf("completion missing lead snapshot: %v", last)
	}
}

func TestTurnZeroFragmentsIsTerminal(t *testing.T) {
	gen := &fragmentGenerator{fragments: nil}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}
	sess := session.New()

	if err := runTurn(t, h, ch, sess, "hello?"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := ch.eventTypes()
	want := []string{protocol.EventTranscript, protocol.EventIntent, protocol.EventAgentText}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	last := ch.events[len(ch.events)-1]
	if last["text"] != stillWorkingText {
		t.Fatalf("unexpected text %v", last["text"])
	}
	if len(ch.audio) != 0 {
		t.Fatal("zero-fragment turn must not synthesize")
	}
	// Caller turn recorded, no agent turn.
	turns := sess.Recent(10)
	if len(turns) != 1 || turns[0].Role != session.RoleCaller {
		t.Fatalf("unexpected session turns %+v", turns)
	}
}

func TestTurnFallbackOnGenerationFailure(t *testing.T) {
	gen := &fragmentGenerator{createErr: errors.New("provider down")}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelBooking)
	ch := &fakeChannel{}
	sess := session.New()

	if err := runTurn(t, h, ch, sess, "book me in for friday please"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := ch.eventTypes()
	want := []string{
		protocol.EventTranscript,
		protocol.EventIntent,
		protocol.EventAgentText,
		protocol.EventAgentComplete,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s (%v)", i, want[i], got[i], got)
		}
	}
	if ch.events[2]["text"] != fallbackText {
		t.Fatalf("unexpected fallback text %v", ch.events[2]["text"])
	}
	if len(ch.audio) == 0 {
		t.Fatal("fallback must be synthesized")
	}
	turns := sess.Recent(10)
	if len(turns) != 2 || turns[1].Role != session.RoleAgent || turns[1].Text != fallbackText {
		t.Fatalf("fallback not stored as agent turn: %+v", turns)
	}
}

func TestTurnMidStreamFailureFallsBack(t *testing.T) {
	gen := &fragmentGenerator{fragments: []string{"partial "}, streamErr: errors.New("stream cut")}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}
	sess := session.New()

	if err := runTurn(t, h, ch, sess, "tell me about pricing"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	last := ch.events[len(ch.events)-1]
	if last["type"] != protocol.EventAgentComplete || last["text"] != fallbackText {
		t.Fatalf("expected fallback completion, got %v", last)
	}
}

func TestTurnSkipsEmptyUtterance(t *testing.T) {
	gen := &fragmentGenerator{fragments: []string{"hi"}}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}

	if err := runTurn(t, h, ch, session.New(), "   "); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(ch.events) != 0 {
		t.Fatalf("expected no events, got %v", ch.eventTypes())
	}
}

func TestTurnExtractionDedupedWithinTurn(t *testing.T) {
	extractor := &countingExtractor{}
	gen := &fragmentGenerator{fragments: []string{"Booked."}}
	h := newTestHandler(t, gen, extractor, intent.LabelBooking)
	ch := &fakeChannel{}

	if err := runTurn(t, h, ch, session.New(), "book me in for friday morning"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Lead merge and the booking agent's slot lookup both ask for the same
	// utterance; the call's cache must answer the second lookup.
	if got := extractor.count(); got != 1 {
		t.Fatalf("expected 1 extraction for the turn, got %d", got)
	}
}

func TestTurnRequestFallbackUsesUtterance(t *testing.T) {
	gen := &fragmentGenerator{fragments: []string{"Sure."}}
	h := newTestHandler(t, gen, &leadExtractor{}, intent.LabelEnquiry)
	ch := &fakeChannel{}
	sess := session.New()

	utterance := "I want to ask about strength coaching for my daughter"
	if err := runTurn(t, h, ch, sess, utterance); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sess.Lead.Request != utterance {
		t.Fatalf("request fallback not applied: %q", sess.Lead.Request)
	}
	if _, ok := ch.events[0]["lead"]; !ok {
		t.Fatal("request change should attach lead to transcript")
	}
}
