package intake

import (
	"testing"

	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
)

func TestMergeAssignsNewFields(t *testing.T) {
	lead := protocol.Lead{}
	fragment := protocol.Lead{Name: " Ada Lovelace ", Email: "ada@example.com"}

	if !MergeLead(&lead, fragment, "") {
		t.Fatal("expected change")
	}
	if lead.Name != "Ada Lovelace" {
		t.Fatalf("expected trimmed name, got %q", lead.Name)
	}
	if lead.Email != "ada@example.com" {
		t.Fatalf("unexpected email %q", lead.Email)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	lead := protocol.Lead{}
	fragment := protocol.Lead{Name: "Ada", Phone: "0400111222", Request: "testing session"}

	if !MergeLead(&lead, fragment, "book a testing session") {
		t.Fatal("expected first merge to change the lead")
	}
	before := lead
	if MergeLead(&lead, fragment, "book a testing session") {
		t.Fatal("second merge of the same fragment reported a change")
	}
	if lead != before {
		t.Fatalf("second merge mutated the lead: %+v -> %+v", before, lead)
	}
}

func TestMergeNeverDowngradesKnownFields(t *testing.T) {
	lead := protocol.Lead{Name: "Ada", DOB: "1990-01-02", Phone: "0400111222"}

	if MergeLead(&lead, protocol.Lead{Name: "", DOB: "   "}, "") {
		t.Fatal("empty fragment should not report change")
	}
	if lead.Name != "Ada" || lead.DOB != "1990-01-02" || lead.Phone != "0400111222" {
		t.Fatalf("known fields were downgraded: %+v", lead)
	}
}

func TestMergeOverwritesWithNewNonEmptyValue(t *testing.T) {
	lead := protocol.Lead{Email: "old@example.com"}
	if !MergeLead(&lead, protocol.Lead{Email: "new@example.com"}, "") {
		t.Fatal("expected change")
	}
	if lead.Email != "new@example.com" {
		t.Fatalf("expected last-non-empty-wins, got %q", lead.Email)
	}
}

func TestMergeRequestFallsBackToLongestUtterance(t *testing.T) {
	lead := protocol.Lead{}

	if !MergeLead(&lead, protocol.Lead{}, "short ask") {
		t.Fatal("expected utterance fallback to set request")
	}
	if lead.Request != "short ask" {
		t.Fatalf("unexpected request %q", lead.Request)
	}

	// A shorter utterance does not replace the stored request.
	if MergeLead(&lead, protocol.Lead{}, "hi") {
		t.Fatal("shorter utterance should not change request")
	}
	if lead.Request != "short ask" {
		t.Fatalf("request was replaced by shorter utterance: %q", lead.Request)
	}

	// A longer one does.
	longer := "a considerably longer description of what the caller wants"
	if !MergeLead(&lead, protocol.Lead{}, longer) {
		t.Fatal("longer utterance should replace request")
	}
	if lead.Request != longer {
		t.Fatalf("unexpected request %q", lead.Request)
	}
}

func TestMergeRequestPrefersExtractedValue(t *testing.T) {
	lead := protocol.Lead{Request: "old request"}
	if !MergeLead(&lead, protocol.Lead{Request: "recovery session"}, "x") {
		t.Fatal("expected extracted request to win")
	}
	if lead.Request != "recovery session" {
		t.Fatalf("unexpected request %q", lead.Request)
	}
}
