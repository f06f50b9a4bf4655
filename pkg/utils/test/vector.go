package testutils

import (
	"context"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// MockVectorDriver is a test vector driver with canned results.
type MockVectorDriver struct {
	Documents []corpus.Document
	Results   []vector.Result

	// SearchErr causes Search to fail when set.
	SearchErr error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Build(_ context.Context, docs []corpus.Document) error {
	m.Documents = append([]corpus.Document(nil), docs...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, k int, filter *vector.Filter) ([]vector.Result, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	out := make([]vector.Result, 0, len(m.Results))
	for _, r := range m.Results {
		if filter != nil && !filter.Matches(r.Document.Locator) {
			continue
		}
		out = append(out, r)
	}

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
