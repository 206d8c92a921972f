package session

import (
	"fmt"
	"strings"
	"testing"
)

func TestAddTurnSkipsEmptyText(t *testing.T) {
	s := New()
	s.AddTurn(RoleCaller, "")
	s.AddTurn(RoleCaller, "   ")
	if got := len(s.Recent(0)); got != 0 {
		t.Fatalf("expected no turns, got %d", got)
	}
}

func TestTurnHistoryBounded(t *testing.T) {
	s := New()
	for i := 0; i < 60; i++ {
		s.AddTurn(RoleCaller, fmt.Sprintf("utterance %d", i))
	}
	turns := s.Recent(0)
	if len(turns) != 50 {
		t.Fatalf("expected 50 turns, got %d", len(turns))
	}
	if turns[0].Text != "utterance 10" {
		t.Fatalf("expected oldest surviving turn to be utterance 10, got %q", turns[0].Text)
	}
	if turns[len(turns)-1].Text != "utterance 59" {
		t.Fatalf("expected newest turn to be utterance 59, got %q", turns[len(turns)-1].Text)
	}
}

func TestRecentReturnsChronologicalTail(t *testing.T) {
	s := New()
	s.AddTurn(RoleCaller, "one")
	s.AddTurn(RoleAgent, "two")
	s.AddTurn(RoleCaller, "three")

	turns := s.Recent(2)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Text != "two" || turns[1].Text != "three" {
		t.Fatalf("unexpected tail: %q, %q", turns[0].Text, turns[1].Text)
	}
}

func TestLatestCallerText(t *testing.T) {
	s := New()
	if s.LatestCallerText() != "" {
		t.Fatal("expected empty latest caller text on fresh session")
	}
	s.AddTurn(RoleCaller, "hello")
	s.AddTurn(RoleAgent, "hi there")
	if got := s.LatestCallerText(); got != "hello" {
		t.Fatalf("expected caller text, got %q", got)
	}
}

func TestLeadSummary(t *testing.T) {
	s := New()
	s.Lead.Name = "Ada"
	s.Lead.Phone = "0400111222"
	summary := s.LeadSummary()
	if !strings.Contains(summary, "Name: Ada") {
		t.Fatalf("summary missing name: %s", summary)
	}
	if !strings.Contains(summary, "DOB: unknown") {
		t.Fatalf("summary missing unknown placeholder: %s", summary)
	}
	if !strings.Contains(summary, "Request: unspecified") {
		t.Fatalf("summary missing request placeholder: %s", summary)
	}
}
