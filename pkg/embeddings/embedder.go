// Package embeddings defines the text embedding contract.
package embeddings

import "context"

// Embedder converts text into a fixed-dimension vector. The embedding model
// itself is an external black box; mishkat only depends on this contract.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of vectors this embedder produces.
	Dimension() int

	// Close releases any resources held by the embedder.
	Close() error
}
