// Package retriever turns a natural language question into a ranked,
// filtered set of corpus passages.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/embeddings"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// DefaultTopK is the number of passages retrieved when the query does not
// specify one.
const DefaultTopK = 5

// DefaultRedundancyThreshold is the Jaccard token overlap above which two
// passages are considered redundant. Zero disables compression.
const DefaultRedundancyThreshold = 0.92

// Query is a retrieval request.
type Query struct {
	Text   string
	Filter *vector.Filter
	TopK   int
}

// Result is the outcome of one retrieval. Empty Passages is a valid result.
type Result struct {
	Passages []vector.Result
	Filter   *vector.Filter
}

// Retriever embeds questions and searches the vector index.
type Retriever struct {
	embedder  embeddings.Embedder
	driver    vector.Driver
	topK      int
	threshold float64
	logger    *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets the default number of passages to retrieve.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithRedundancyThreshold sets the Jaccard overlap threshold for dropping
// near-duplicate passages. Zero disables compression.
func WithRedundancyThreshold(t float64) Option {
	return func(r *Retriever) {
		r.threshold = t
	}
}

// New creates a Retriever over the given embedder and vector driver.
func New(embedder embeddings.Embedder, driver vector.Driver, logger *zap.Logger, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		driver:    driver,
		topK:      DefaultTopK,
		threshold: DefaultRedundancyThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query text and returns the top passages matching the
// filter, deduplicated and compressed for redundancy. Retrieval has no side
// effects; repeating a query against an unchanged index yields the same
// passages in the same order.
func (r *Retriever) Retrieve(ctx context.Context, q Query) (*Result, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = r.topK
	}

	embedding, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.driver.Search(ctx, embedding, topK, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results = dedupe(results)
	if r.threshold > 0 {
		before := len(results)
		results = compress(results, r.threshold)
		if dropped := before - len(results); dropped > 0 {
			r.logger.Debug("dropped redundant passages",
				zap.Int("dropped", dropped),
				zap.Int("kept", len(results)),
			)
		}
	}

	r.logger.Debug("retrieval complete",
		zap.String("question", q.Text),
		zap.Int("passages", len(results)),
	)

	return &Result{Passages: results, Filter: q.Filter}, nil
}

// dedupe removes repeated document IDs, keeping the first (highest ranked)
// occurrence. Order is preserved.
func dedupe(results []vector.Result) []vector.Result {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, res := range results {
		if _, ok := seen[res.Document.ID]; ok {
			continue
		}
		seen[res.Document.ID] = struct{}{}
		out = append(out, res)
	}
	return out
}
