package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

// indexFile is the on-disk envelope for a persisted index. The dimension is
// recorded redundantly so structural mismatches are detectable at load time.
type indexFile struct {
	Version   int               `json:"version"`
	Dimension int               `json:"dimension"`
	Documents []corpus.Document `json:"documents"`
}

const indexFileVersion = 1

// Save serializes the index to path. The write goes through a temp file and
// rename so a crash mid-write never leaves a truncated index behind.
func (d *Driver) Save(path string) error {
	d.mu.RLock()
	file := indexFile{
		Version:   indexFileVersion,
		Dimension: d.dimension,
		Documents: d.docs,
	}
	data, err := json.Marshal(file)
	d.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	if d.logger != nil {
		d.logger.Info("persisted index",
			zap.String("path", path),
			zap.Int("documents", len(file.Documents)),
		)
	}

	return nil
}

// Load deserializes a persisted index from path. A structurally inconsistent
// file (unparseable, missing dimension, or vectors that disagree with the
// recorded dimension) fails with vector.ErrCorruptIndex.
func Load(path string, logger *zap.Logger) (*Driver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrCorruptIndex, err)
	}

	if file.Dimension <= 0 {
		return nil, fmt.Errorf("%w: recorded dimension %d", vector.ErrCorruptIndex, file.Dimension)
	}

	for _, doc := range file.Documents {
		if len(doc.Embedding) != file.Dimension {
			return nil, fmt.Errorf("%w: document %s has dimension %d, file records %d",
				vector.ErrCorruptIndex, doc.ID, len(doc.Embedding), file.Dimension)
		}
	}

	driver, err := New(file.Dimension, logger)
	if err != nil {
		return nil, err
	}
	driver.docs = file.Documents

	if logger != nil {
		logger.Info("loaded index",
			zap.String("path", path),
			zap.Int("documents", len(file.Documents)),
			zap.Int("dimension", file.Dimension),
		)
	}

	return driver, nil
}

// Exists reports whether a persisted index is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
