package domain

import "errors"

// Error taxonomy of the engine. Callers match with errors.Is; wrap with
// fmt.Errorf("...: %w", err) to add context without hiding the sentinel.
// An empty corpus is a valid terminal state, not an error.
var (
	// ErrEmbeddingUnavailable: the provider failed to initialize or to
	// produce a vector for a given image.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch: a query embedding length differs from the
	// index's established dimensionality. Never reported as a zero-score
	// match.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreUnavailable: the persistence layer failed to initialize or
	// an I/O operation failed.
	ErrStoreUnavailable = errors.New("similarity index unavailable")

	// ErrNotFound: no record with the given id.
	ErrNotFound = errors.New("record not found")
)
