// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// It persists the index to a database file, so rebuilds survive restarts
// without a separate save step.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// Driver implements vector.Driver using SQLite with the sqlite-vec extension.
type Driver struct {
	db         *sql.DB
	dimensions int
	logger     *zap.Logger
}

// Config holds configuration for the sqlite-vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding vector dimension. Required.
	Dimensions int
}

// New creates a sqlite-vec driver. The vec0 virtual table is declared with
// cosine distance so scores are comparable with the memory driver.
func New(c Config, logger *zap.Logger) (*Driver, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// Passage metadata lives in a plain table keyed by the same rowid as
	// the vec0 virtual table, since vec0 only holds the vectors.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS passages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			collection TEXT NOT NULL DEFAULT '',
			surah INTEGER NOT NULL,
			verse INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating passages table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS passage_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Int("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB
// format sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Build replaces the index contents with the given documents.
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

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passage_embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM passages`); err != nil {
		return fmt.Errorf("clearing passages: %w", err)
	}

	for _, doc := range docs {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO passages(doc_id, text, source, collection, surah, verse) VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Text, string(doc.Source), doc.Collection, doc.Locator.Surah, doc.Locator.Verse,
		)
		if err != nil {
			return fmt.Errorf("inserting passage %s: %w", doc.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for passage %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passage_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for passage %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("built sqlite-vec index", zap.Int("documents", len(docs)))

	return nil
}

// Search returns the k nearest documents matching the filter.
//
// vec0 KNN queries select k rows before the metadata join, so a locator
// filter would silently shrink the result set below k. With a filter present
// the query ranks the whole table instead; the corpus is small enough that
// this stays cheap.
func (d *Driver) Search(ctx context.Context, embedding []float32, k int, filter *vector.Filter) ([]vector.Result, error) {
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	fetchK := k
	if !filter.IsZero() {
		var total int
		if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&total); err != nil {
			return nil, fmt.Errorf("counting passages: %w", err)
		}
		fetchK = total
	}
	if fetchK == 0 {
		return nil, nil
	}

	query := `
		SELECT
			p.doc_id, p.text, p.source, p.collection, p.surah, p.verse,
			pe.distance
		FROM passage_embeddings pe
		INNER JOIN passages p ON p.rowid = pe.rowid
		WHERE pe.embedding MATCH ?
			AND pe.k = ?
	`
	args := []any{serializeFloat32(embedding), fetchK}

	if filter != nil && filter.Surah != 0 {
		query += ` AND p.surah = ?`
		args = append(args, filter.Surah)
	}
	if filter != nil && filter.Verse != 0 {
		if filter.EndVerse != 0 {
			query += ` AND p.verse >= ? AND p.verse <= ?`
			args = append(args, filter.Verse, filter.EndVerse)
		} else {
			query += ` AND p.verse = ?`
			args = append(args, filter.Verse)
		}
	}

	query += ` ORDER BY pe.distance, p.doc_id LIMIT ?`
	args = append(args, k)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var doc corpus.Document
		var source string
		var distance float64
		if err := rows.Scan(&doc.ID, &doc.Text, &source, &doc.Collection,
			&doc.Locator.Surah, &doc.Locator.Verse, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		doc.Source = corpus.SourceType(source)

		results = append(results, vector.Result{
			Document: doc,
			// Cosine distance is 1 - similarity.
			Score: float32(1.0 - distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
