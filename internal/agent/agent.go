// Package agent selects and builds the prompt for each turn. Exactly two
// agents exist: bookings and general enquiries.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/intent"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
)

// promptTurns is how much conversation context the prompts carry.
const promptTurns = 6

// Agent builds the generation prompt for one turn.
type Agent interface {
	Name() string
	BuildPrompt(ctx context.Context, sess *session.Session, utterance string) (string, error)
}

// Registry routes an intent label to its agent.
type Registry struct {
	booking Agent
	enquiry Agent
}

func NewRegistry(booking, enquiry Agent) *Registry {
	return &Registry{booking: booking, enquiry: enquiry}
}

// Route returns the agent for a label; anything but the booking label maps
// to the enquiry agent.
func (r *Registry) Route(label string) Agent {
	if label == intent.LabelBooking {
		return r.booking
	}
	return r.enquiry
}

// conversationContext renders the recent turns as prompt lines.
func conversationContext(sess *session.Session) string {
	turns := sess.Recent(promptTurns)
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "Agent"
		if turn.Role == session.RoleCaller {
			speaker = "Caller"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Text))
	}
	return strings.Join(lines, "\n")
}
