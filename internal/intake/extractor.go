// Package intake captures structured caller data (the lead) from recognized
// utterances: a single-entry extraction cache in front of the extractor
// collaborator, and the merge rules that fold partial results into the
// session without clobbering known fields.
package intake

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
)

// SlotPreference is a caller-expressed scheduling preference. It is consumed
// when building a booking reply and never stored on the session.
type SlotPreference struct {
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Meridiem string `json:"meridiem,omitempty"`
}

// Result is one extraction outcome: a partial lead plus an optional slot
// preference.
type Result struct {
	Lead protocol.Lead
	Slot *SlotPreference
}

// Extractor is the external structured-extraction collaborator. A nil result
// with nil error means the extractor found nothing usable.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Result, error)
}

var digitsOnly = regexp.MustCompile(`^\+?\d+$`)

// sanitizeLead trims fields and drops values that fail basic shape checks.
// Phone numbers must be digits (optionally with a leading +), matching what
// the extractor is instructed to produce.
func sanitizeLead(lead protocol.Lead) protocol.Lead {
	out := protocol.Lead{
		Name:    strings.TrimSpace(lead.Name),
		DOB:     strings.TrimSpace(lead.DOB),
		Email:   strings.TrimSpace(lead.Email),
		Request: strings.TrimSpace(lead.Request),
	}
	if phone := strings.TrimSpace(lead.Phone); phone != "" && digitsOnly.MatchString(phone) {
		out.Phone = phone
	}
	return out
}

// sanitizeSlot validates the meridiem and trims the rest; returns nil when
// nothing survives.
func sanitizeSlot(slot *SlotPreference) *SlotPreference {
	if slot == nil {
		return nil
	}
	out := &SlotPreference{
		Date: strings.TrimSpace(slot.Date),
		Time: strings.TrimSpace(slot.Time),
	}
	switch m := strings.ToLower(strings.TrimSpace(slot.Meridiem)); m {
	case "am", "pm":
		out.Meridiem = m
	}
	if out.Date == "" && out.Time == "" && out.Meridiem == "" {
		return nil
	}
	return out
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
