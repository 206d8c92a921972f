package intake

import "context"

type mockExtractor struct{}

// NewMockExtractor returns an extractor that never finds anything, for
// running the daemon without provider credentials.
func NewMockExtractor() Extractor { return &mockExtractor{} }

func (m *mockExtractor) Extract(context.Context, string) (*Result, error) {
	return nil, nil
}
