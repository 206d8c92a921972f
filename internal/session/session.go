package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"github.com/google/uuid"
)

// Roles for conversation turns.
const (
	RoleCaller = "caller"
	RoleAgent  = "agent"
)

// maxTurns bounds the conversation history kept for prompt building.
const maxTurns = 50

// Turn is one utterance attributed to the caller or the agent.
type Turn struct {
	Role      string
	Text      string
	Timestamp time.Time
}

// Session holds one call's conversation history and captured lead fields.
// It is owned by the connection handler and mutated only on the call's
// serialized turn-processing path, so it carries no lock.
type Session struct {
	ID        string
	CreatedAt time.Time
	Lead      protocol.Lead

	turns []Turn
}

func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// AddTurn appends a turn, dropping the oldest entries beyond the history
// bound. Empty text is never stored.
func (s *Session) AddTurn(role, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.turns = append(s.turns, Turn{Role: role, Text: text, Timestamp: time.Now()})
	if len(s.turns) > maxTurns {
		s.turns = s.turns[len(s.turns)-maxTurns:]
	}
}

// Recent returns up to n most recent turns in chronological order.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || n > len(s.turns) {
		n = len(s.turns)
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// LatestCallerText returns the text of the most recent caller turn.
func (s *Session) LatestCallerText() string {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == RoleCaller {
			return s.turns[i].Text
		}
	}
	return ""
}

// LeadSummary renders the lead fields for prompt context.
func (s *Session) LeadSummary() string {
	return fmt.Sprintf("Name: %s, DOB: %s, Email: %s, Phone: %s, Request: %s",
		orUnknown(s.Lead.Name),
		orUnknown(s.Lead.DOB),
		orUnknown(s.Lead.Email),
		orUnknown(s.Lead.Phone),
		orDefault(s.Lead.Request, "unspecified"))
}

func orUnknown(v string) string { return orDefault(v, "unknown") }

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
