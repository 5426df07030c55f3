package semantic

import "errors"

var (
	// ErrNilEmbedder is returned when an Index is built without an embedder.
	ErrNilEmbedder = errors.New("embedder cannot be nil")

	// ErrEmptyEmbedding is returned when a record without a vector is added.
	ErrEmptyEmbedding = errors.New("record has no embedding")

	// ErrDimensionMismatch is returned when vectors of different lengths meet.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyQuery is returned by Retrieve for blank queries.
	ErrEmptyQuery = errors.New("query cannot be empty")
)
