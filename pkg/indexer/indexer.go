// Package indexer builds the vector index from the corpus files: load,
// chunk, embed, store.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/embeddings"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// DefaultWorkers bounds concurrent embedding calls against the provider.
const DefaultWorkers = 8

// Result contains statistics from an index build.
type Result struct {
	Verses    int
	Tafsir    int
	Chunks    int
	Elapsed   time.Duration
	Dimension int
}

// Summary returns a human-readable summary of the build result.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Index build complete: %d verses, %d tafsir passages, %d chunks embedded (%d dims) in %s",
		r.Verses, r.Tafsir, r.Chunks, r.Dimension, r.Elapsed.Round(time.Millisecond),
	)
}

// Indexer builds a vector index from corpus files.
type Indexer struct {
	embedder  embeddings.Embedder
	driver    vector.Driver
	chunkSize int
	workers   int
	logger    *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithChunkSize sets the chunk size for long passages.
func WithChunkSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.chunkSize = n
		}
	}
}

// WithWorkers bounds concurrent embedding calls.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// New creates an Indexer over the given embedder and driver.
func New(embedder embeddings.Embedder, driver vector.Driver, logger *zap.Logger, opts ...Option) *Indexer {
	ix := &Indexer{
		embedder:  embedder,
		driver:    driver,
		chunkSize: corpus.DefaultChunkSize,
		workers:   DefaultWorkers,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Run loads the corpus, embeds every chunk and builds the index. The driver
// swaps the new index in atomically, so concurrent readers keep seeing the
// old documents until the build commits.
func (ix *Indexer) Run(ctx context.Context, quranPath, tafsirDir string) (*Result, error) {
	start := time.Now()

	var docs []corpus.Document
	result := &Result{Dimension: ix.embedder.Dimension()}

	if quranPath != "" {
		verses, err := corpus.LoadQuran(quranPath)
		if err != nil {
			return nil, fmt.Errorf("loading quran corpus: %w", err)
		}
		result.Verses = len(verses)
		docs = append(docs, verses...)
	}

	if tafsirDir != "" {
		tafsir, err := corpus.LoadTafsirDir(tafsirDir)
		if err != nil {
			return nil, fmt.Errorf("loading tafsir corpus: %w", err)
		}
		result.Tafsir = len(tafsir)
		docs = append(docs, tafsir...)
	}

	if len(docs) == 0 {
		return nil, corpus.ErrEmptyCorpus
	}

	chunks := corpus.Chunk(docs, ix.chunkSize)
	result.Chunks = len(chunks)

	ix.logger.Info("embedding corpus",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("workers", ix.workers),
	)

	if err := ix.embedAll(ctx, chunks); err != nil {
		return nil, err
	}

	if err := ix.driver.Build(ctx, chunks); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// embedAll fills in every chunk's embedding with bounded concurrency.
// Each worker writes only its own index, so no locking is needed.
func (ix *Indexer) embedAll(ctx context.Context, chunks []corpus.Document) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for i := range chunks {
		g.Go(func() error {
			embedding, err := ix.embedder.Embed(gctx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", chunks[i].ID, err)
			}
			chunks[i].Embedding = embedding
			return nil
		})
	}

	return g.Wait()
}
