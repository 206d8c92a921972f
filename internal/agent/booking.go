package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/session"
)

// BookingAgent handles appointment scheduling turns. It resolves the
// caller's slot preference against the calendar and embeds the result in
// the prompt so the model can confirm or offer an alternative.
type BookingAgent struct {
	kb       *KnowledgeBase
	calendar *Calendar
	cache    *intake.Cache
	logger   *slog.Logger
}

func NewBookingAgent(kb *KnowledgeBase, calendar *Calendar, cache *intake.Cache, logger *slog.Logger) *BookingAgent {
	return &BookingAgent{
		kb:       kb,
		calendar: calendar,
		cache:    cache,
		logger:   logger.With(slog.String("component", "agent.booking")),
	}
}

func (a *BookingAgent) Name() string { return "booking" }

func (a *BookingAgent) BuildPrompt(ctx context.Context, sess *session.Session, utterance string) (string, error) {
	var pref *intake.SlotPreference
	if res := a.cache.Extract(ctx, utterance); res != nil {
		pref = res.Slot
	}

	avail := a.calendar.CheckAvailability(pref)
	availability := a.describeAvailability(avail)
	a.logger.Debug("availability resolved",
		slog.String("slot", avail.Slot),
		slog.Bool("available", avail.Available))

	var b strings.Builder
	b.WriteString("You are the phone receptionist for ")
	b.WriteString(a.kb.BusinessSummary())
	b.WriteString("\n\nYou are helping the caller book an appointment.\n")
	b.WriteString("Services on offer:\n")
	b.WriteString(a.kb.ListServices())
	b.WriteString("\n\nCalendar check:\n")
	b.WriteString(availability)
	b.WriteString("\n\nWhat we know about the caller so far:\n")
	b.WriteString(sess.LeadSummary())
	b.WriteString("\n\nRecent conversation:\n")
	b.WriteString(conversationContext(sess))
	b.WriteString("\n\nCaller just said: ")
	b.WriteString(utterance)
	b.WriteString("\n\nRespond in one or two short spoken sentences. ")
	b.WriteString("If the requested time is taken, offer the suggested alternative. ")
	b.WriteString("If you are missing the caller's name or phone number, ask for the missing detail before confirming.")
	return b.String(), nil
}

func (a *BookingAgent) describeAvailability(avail Availability) string {
	if avail.Available {
		return fmt.Sprintf("The slot %s is free.", avail.Slot)
	}
	if avail.Suggestion != "" {
		return fmt.Sprintf("The slot %s is taken. The nearest open slot is %s.", avail.Slot, avail.Suggestion)
	}
	return fmt.Sprintf("The slot %s is taken and no nearby alternative was found.", avail.Slot)
}
