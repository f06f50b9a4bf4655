package testutils

import (
	"context"
	"fmt"

	"github.com/noorlabs/mishkat/pkg/vector"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for any text without a registered embedding.
	Default []float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	def := make([]float32, dimension)
	for i := range def {
		def[i] = 0.1
	}

	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    def,
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", vector.ErrEmbedding, text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return m.Default, nil
}

func (m *MockEmbedder) Dimension() int {
	return len(m.Default)
}

func (m *MockEmbedder) Close() error {
	return nil
}
