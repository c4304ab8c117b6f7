package port

import "photomatch/internal/domain"

// ProviderState tracks the lazy readiness of an embedding provider.
type ProviderState int

const (
	ProviderNotReady ProviderState = iota
	ProviderInitializing
	ProviderReady
)

func (s ProviderState) String() string {
	switch s {
	case ProviderInitializing:
		return "initializing"
	case ProviderReady:
		return "ready"
	default:
		return "not ready"
	}
}

// Embedder converts an image into a fixed-length, L2-normalized float
// vector. Implementations are deterministic for identical input.
type Embedder interface {
	// Ready performs the provider's one-time initialization. Concurrent
	// callers share a single in-flight attempt; a failed attempt may be
	// retried by a later call. Once ready, the provider stays ready for
	// the process lifetime.
	Ready() error

	// Embed generates the embedding for the given image.
	Embed(img domain.Image) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string

	// State reports the current readiness state.
	State() ProviderState
}
