package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/session"
)

// EnquiryAgent answers general questions from the knowledge base.
type EnquiryAgent struct {
	kb     *KnowledgeBase
	logger *slog.Logger
}

func NewEnquiryAgent(kb *KnowledgeBase, logger *slog.Logger) *EnquiryAgent {
	return &EnquiryAgent{
		kb:     kb,
		logger: logger.With(slog.String("component", "agent.enquiry")),
	}
}

func (a *EnquiryAgent) Name() string { return "enquiry" }

func (a *EnquiryAgent) BuildPrompt(ctx context.Context, sess *session.Session, utterance string) (string, error) {
	answer := a.kb.Search(utterance)
	a.logger.Debug("knowledge base searched",
		slog.Bool("matched", answer != ""))

	var b strings.Builder
	b.WriteString("You are the phone receptionist for ")
	b.WriteString(a.kb.BusinessSummary())
	b.WriteString("\n\nRelevant knowledge base entry:\n")
	if answer == "" {
		b.WriteString("(nothing matched; answer from the business summary or say you will check)")
	} else {
		b.WriteString(answer)
	}
	b.WriteString("\n\nServices on offer:\n")
	b.WriteString(a.kb.ListServices())
	b.WriteString("\n\nWhat we know about the caller so far:\n")
	b.WriteString(sess.LeadSummary())
	b.WriteString("\n\nRecent conversation:\n")
	b.WriteString(conversationContext(sess))
	b.WriteString("\n\nCaller just said: ")
	b.WriteString(utterance)
	b.WriteString("\n\nRespond in one or two short spoken sentences using only the information above.")
	return b.String(), nil
}
