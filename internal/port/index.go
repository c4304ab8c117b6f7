package port

import "photomatch/internal/domain"

// SimilarityIndex is the durable collection of registered image records.
// Search is a brute-force cosine scan over every stored embedding, which
// is the intended design point at a corpus of hundreds to low thousands
// of records.
type SimilarityIndex interface {
	// Insert assigns a fresh unique id and creation timestamp, persists
	// the record atomically and returns the id.
	Insert(rec domain.ImageRecord) (string, error)

	// GetAll returns every record; order is not significant.
	GetAll() ([]domain.ImageRecord, error)

	// QueryTopN ranks every stored record by cosine similarity to the
	// query and returns the first n, descending. A query whose length
	// differs from the stored dimensionality is a hard
	// domain.ErrDimensionMismatch, never a zero-score result. An empty
	// index returns an empty slice.
	QueryTopN(query []float32, n int) ([]domain.SearchResult, error)

	// GetByAccountHandle returns the records registered under handle.
	GetByAccountHandle(handle string) ([]domain.ImageRecord, error)

	// UniqueAccounts returns one entry per distinct account handle,
	// sorted by registration count descending.
	UniqueAccounts() ([]domain.AccountCount, error)

	Count() (int, error)

	Delete(id string) error

	Clear() error

	Close() error
}
