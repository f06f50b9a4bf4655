// Package memory provides an in-process vector driver using brute-force
// cosine similarity. It is the default backend: the full corpus fits
// comfortably in memory and exact search keeps result order deterministic.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// Driver implements vector.Driver with exact cosine-similarity search.
// Reads take a shared lock; Build swaps the document set under an exclusive
// lock so concurrent searches never observe a half-built index.
type Driver struct {
	mu        sync.RWMutex
	dimension int
	docs      []corpus.Document
	logger    *zap.Logger
}

// New creates a memory driver for embeddings of the given dimension.
func New(dimension int, logger *zap.Logger) (*Driver, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", vector.ErrBuild, dimension)
	}
	return &Driver{dimension: dimension, logger: logger}, nil
}

// Build indexes the documents, replacing any previous contents.
func (d *Driver) Build(_ context.Context, docs []corpus.Document) error {
	indexed := make([]corpus.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has no embedding", vector.ErrBuild, doc.ID)
		}
		if len(doc.Embedding) != d.dimension {
			return fmt.Errorf("%w: document %s has dimension %d, index expects %d",
				vector.ErrBuild, doc.ID, len(doc.Embedding), d.dimension)
		}
		indexed[i] = doc
	}

	d.mu.Lock()
	d.docs = indexed
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Debug("built in-memory index", zap.Int("documents", len(indexed)))
	}

	return nil
}

// Search returns the k nearest documents matching the filter, sorted by
// descending score with ties broken by ascending document ID.
func (d *Driver) Search(_ context.Context, embedding []float32, k int, filter *vector.Filter) ([]vector.Result, error) {
	if len(embedding) != d.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.Result, 0, len(d.docs))
	for _, doc := range d.docs {
		if !filter.Matches(doc.Locator) {
			continue
		}
		results = append(results, vector.Result{
			Document: doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if k < len(results) {
		results = results[:k]
	}

	return results, nil
}

// Len returns the number of indexed documents.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Dimension returns the embedding dimension the index was configured with.
func (d *Driver) Dimension() int {
	return d.dimension
}

// Close releases resources; the memory driver holds none beyond the heap.
func (d *Driver) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// in [-1, 1] with higher meaning more similar.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

var _ vector.Driver = (*Driver)(nil)
