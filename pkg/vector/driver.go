// Package vector provides the embedding index: storage of document vectors and
// filtered nearest-neighbor search over them.
package vector

import (
	"context"

	"github.com/noorlabs/mishkat/pkg/corpus"
)

// Result is a search hit: a document and its similarity score. Scores are
// normalized so that higher is always better (cosine similarity in [-1, 1]).
type Result struct {
	Document corpus.Document

	Score float32
}

// Driver stores document vectors and answers nearest-neighbor queries.
type Driver interface {
	// Build indexes the given documents, replacing any previous contents.
	// Every document must carry an embedding of the driver's configured
	// dimension; otherwise Build fails with ErrBuild.
	Build(ctx context.Context, docs []corpus.Document) error

	// Search returns up to k documents nearest to the query embedding,
	// restricted to those matching the filter (nil means no restriction).
	// Results are sorted by descending score; equal scores are ordered by
	// ascending document ID. Fewer than k matches is not an error.
	// A query embedding of the wrong dimension fails with ErrDimensionMismatch.
	Search(ctx context.Context, embedding []float32, k int, filter *Filter) ([]Result, error)

	// Close releases any resources held by the driver.
	Close() error
}
