// Package qdrant provides a Qdrant-backed vector driver for deployments where
// the index should live in a dedicated vector database rather than in process.
package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

const upsertBatchSize = 256

// Driver implements vector.Driver against a Qdrant collection configured for
// cosine distance.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions int
	logger     *zap.Logger
}

// Config holds connection settings for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host (e.g. "localhost").
	Host string

	// Port is the Qdrant gRPC port (usually 6334).
	Port int

	// APIKey authenticates against Qdrant Cloud. Optional.
	APIKey string

	// Collection is the collection name holding the corpus.
	Collection string

	// Dimensions is the embedding vector dimension. Required.
	Dimensions int
}

// New creates a Qdrant driver and ensures the collection exists.
func New(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be configured")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: c.Collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("qdrant vector driver initialized",
		zap.String("host", c.Host),
		zap.String("collection", c.Collection),
		zap.Int("dimensions", c.Dimensions),
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(d.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection: %v", vector.ErrConnection, err)
	}

	return nil
}

// pointID derives a stable UUID point ID from the document ID, since Qdrant
// point IDs must be integers or UUIDs.
func pointID(docID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID)).String())
}

// Build replaces the collection contents with the given documents.
func (d *Driver) Build(ctx context.Context, docs []corpus.Document) error {
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has no embedding", vector.ErrBuild, doc.ID)
		}
		if len(doc.Embedding) != d.dimensions {
			return fmt.Errorf("%w: document %s has dimension %d, index expects %d",
				vector.ErrBuild, doc.ID, len(doc.Embedding), d.dimensions)
		}
	}

	// Rebuild is drop-and-recreate: Qdrant swaps collections atomically per
	// operation, and readers of the old collection finish before the drop.
	if err := d.client.DeleteCollection(ctx, d.collection); err != nil {
		return fmt.Errorf("%w: dropping collection: %v", vector.ErrConnection, err)
	}
	if err := d.ensureCollection(ctx); err != nil {
		return err
	}

	for start := 0; start < len(docs); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(docs))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, doc := range docs[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      pointID(doc.ID),
				Vectors: qdrant.NewVectors(doc.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"doc_id":     doc.ID,
					"text":       doc.Text,
					"source":     string(doc.Source),
					"collection": doc.Collection,
					"surah":      int64(doc.Locator.Surah),
					"verse":      int64(doc.Locator.Verse),
				}),
			})
		}

		_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: d.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("%w: upserting points: %v", vector.ErrConnection, err)
		}
	}

	d.logger.Debug("built qdrant index", zap.Int("documents", len(docs)))

	return nil
}

// Search returns the k nearest documents matching the filter.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int, filter *vector.Filter) ([]vector.Result, error) {
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying points: %v", vector.ErrConnection, err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, point := range points {
		results = append(results, vector.Result{
			Document: documentFromPayload(point.Payload),
			Score:    point.Score,
		})
	}

	// Qdrant does not define an order among equal scores; re-sort so the
	// ascending-ID tie-break holds across backends.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	return results, nil
}

func buildFilter(f *vector.Filter) *qdrant.Filter {
	if f.IsZero() {
		return nil
	}

	var must []*qdrant.Condition
	if f.Surah != 0 {
		must = append(must, qdrant.NewMatchInt("surah", int64(f.Surah)))
	}
	if f.Verse != 0 {
		if f.EndVerse != 0 {
			must = append(must, qdrant.NewRange("verse", &qdrant.Range{
				Gte: qdrant.PtrOf(float64(f.Verse)),
				Lte: qdrant.PtrOf(float64(f.EndVerse)),
			}))
		} else {
			must = append(must, qdrant.NewMatchInt("verse", int64(f.Verse)))
		}
	}

	return &qdrant.Filter{Must: must}
}

func documentFromPayload(payload map[string]*qdrant.Value) corpus.Document {
	var doc corpus.Document
	if v, ok := payload["doc_id"]; ok {
		doc.ID = v.GetStringValue()
	}
	if v, ok := payload["text"]; ok {
		doc.Text = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		doc.Source = corpus.SourceType(v.GetStringValue())
	}
	if v, ok := payload["collection"]; ok {
		doc.Collection = v.GetStringValue()
	}
	if v, ok := payload["surah"]; ok {
		doc.Locator.Surah = int(v.GetIntegerValue())
	}
	if v, ok := payload["verse"]; ok {
		doc.Locator.Verse = int(v.GetIntegerValue())
	}
	return doc
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
