package intake

import (
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
)

// MergeLead folds an extraction fragment into the lead. Identity fields are
// assigned only from non-empty trimmed values that differ from what is known;
// a known value is never downgraded to empty. The request field prefers a
// non-empty extracted value and otherwise falls back to the raw utterance
// when it is longer than the stored request. Returns whether anything
// changed.
func MergeLead(lead *protocol.Lead, fragment protocol.Lead, utterance string) bool {
	changed := false

	changed = assign(&lead.Name, fragment.Name) || changed
	changed = assign(&lead.DOB, fragment.DOB) || changed
	changed = assign(&lead.Email, fragment.Email) || changed
	changed = assign(&lead.Phone, fragment.Phone) || changed

	if request := strings.TrimSpace(fragment.Request); request != "" {
		changed = assign(&lead.Request, request) || changed
	} else if utterance != "" && len(utterance) > len(lead.Request) {
		lead.Request = utterance
		changed = true
	}

	return changed
}

func assign(field *string, value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || *field == trimmed {
		return false
	}
	*field = trimmed
	return true
}
