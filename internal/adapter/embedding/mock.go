package embedding

import (
	"fmt"
	"hash/fnv"

	"photomatch/internal/domain"
	"photomatch/internal/port"
	"photomatch/internal/vecmath"
)

// MockEmbedder derives a deterministic, L2-normalized pseudo-embedding
// from the pixel bytes. Identical pixels always produce the identical
// vector, so self-matches score 1.0. It stands in for a real model in
// tests and offline runs; the vectors carry no visual semantics.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 512
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Ready() error {
	return nil
}

func (e *MockEmbedder) Embed(img domain.Image) ([]float32, error) {
	h := fnv.New64a()
	fmt.Fprintf(h, "%dx%d:", img.Width, img.Height)
	h.Write(img.Pix)
	seed := h.Sum64()

	vec := make([]float32, e.dimension)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed>>11)/float32(1<<52) - 1.0
	}
	vecmath.Normalize(vec)
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}

func (e *MockEmbedder) State() port.ProviderState {
	return port.ProviderReady
}
