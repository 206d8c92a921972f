// Package intent routes each caller utterance to one of two labels. The
// classifier collaborator is advisory: any failure or unrecognized label
// silently falls back to the default, never to an error.
package intent

import (
	"context"
	"log/slog"
	"strings"
)

// Labels the router understands.
const (
	LabelBooking = "booking"
	LabelEnquiry = "general_enquiry"
)

// DefaultLabel is used for empty utterances and classifier failures.
const DefaultLabel = LabelEnquiry

// Classifier is the external classification collaborator. An empty label
// with nil error means the classifier produced no usable result.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (string, error)
}

// Router wraps a classifier with the fallback rules.
type Router struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewRouter(classifier Classifier, logger *slog.Logger) *Router {
	return &Router{
		classifier: classifier,
		logger:     logger.With(slog.String("component", "intent-router")),
	}
}

// Classify returns exactly one valid label. Empty text short-circuits to the
// default without invoking the classifier.
func (r *Router) Classify(ctx context.Context, utterance string) string {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return DefaultLabel
	}

	label, err := r.classifier.Classify(ctx, trimmed)
	if err != nil {
		r.logger.Warn("intent classification failed", slog.String("error", err.Error()))
		return DefaultLabel
	}
	switch label {
	case LabelBooking, LabelEnquiry:
		return label
	}
	if label != "" {
		r.logger.Warn("intent classification returned invalid label", slog.String("label", label))
	}
	return DefaultLabel
}
