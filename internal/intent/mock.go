package intent

import (
	"context"
	"strings"
)

type mockClassifier struct{}

// NewMockClassifier returns a keyword classifier for credential-less runs.
func NewMockClassifier() Classifier { return &mockClassifier{} }

func (m *mockClassifier) Classify(_ context.Context, utterance string) (string, error) {
	lower := strings.ToLower(utterance)
	for _, kw := range []string{"book", "appointment", "schedule", "reschedule", "available"} {
		if strings.Contains(lower, kw) {
			return LabelBooking, nil
		}
	}
	return LabelEnquiry, nil
}
