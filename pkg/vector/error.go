package vector

import "errors"

var (
	// ErrBuild is returned when an index cannot be built, e.g. a document
	// is missing its embedding or carries one of the wrong dimension.
	ErrBuild = errors.New("index build failed")

	// ErrDimensionMismatch is returned when a query embedding does not match
	// the dimension the index was built with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex is returned when a persisted index cannot be loaded
	// because its structure is inconsistent.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when a remote vector store cannot be reached.
	ErrConnection = errors.New("vector store connection failed")
)
