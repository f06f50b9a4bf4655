// Package openai implements pkg/embeddings' Embedder against the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/noorlabs/mishkat/pkg/embeddings"
	"github.com/noorlabs/mishkat/pkg/vector"
)

const (
	// DefaultModel is the default embedding model.
	DefaultModel = "text-embedding-3-small"

	// dimensions per model; text-embedding-3-small is the default.
	dimSmall = 1536
	dimLarge = 3072
)

// Embedder wraps the OpenAI embeddings endpoint.
type Embedder struct {
	client *goopenai.Client
	model  string
	dim    int
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// Model is the embedding model (defaults to DefaultModel).
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string
}

// New creates an OpenAI embedder.
func New(c Config) (*Embedder, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: api key is required")
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	dim := dimSmall
	if model == "text-embedding-3-large" {
		dim = dimLarge
	}

	cfg := goopenai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}

	return &Embedder{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
		dim:    dim,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", vector.ErrEmbedding)
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding data returned", vector.ErrEmbedding)
	}

	return resp.Data[0].Embedding, nil
}

// Dimension returns the embedding dimension for the configured model.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
