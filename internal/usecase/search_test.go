package usecase

import (
	"errors"
	"math"
	"testing"

	"photomatch/internal/adapter/embedding"
	"photomatch/internal/adapter/memindex"
	"photomatch/internal/domain"
	"photomatch/internal/port"
)

// brokenEmbedder fails every call the way a dead provider would.
type brokenEmbedder struct{}

func (brokenEmbedder) Ready() error {
	return errors.New("provider unreachable")
}

func (brokenEmbedder) Embed(domain.Image) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (brokenEmbedder) Dimension() int            { return 512 }
func (brokenEmbedder) ModelName() string         { return "broken" }
func (brokenEmbedder) State() port.ProviderState { return port.ProviderNotReady }

func testImage(seed byte) domain.Image {
	const w, h = 48, 48
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = byte(i/4) * seed
		pix[i+1] = byte(i/7) + seed
		pix[i+2] = seed
		pix[i+3] = 255
	}
	return domain.Image{Width: w, Height: h, Pix: pix}
}

func TestSearchEmptyIndex(t *testing.T) {
	engine := NewEngine(memindex.NewMemoryIndex(), embedding.NewMockEmbedder(64), 10)

	var stages []domain.SearchStage
	var percents []int
	candidates, err := engine.Search(testImage(3), "", func(p domain.SearchProgress) {
		stages = append(stages, p.Stage)
		percents = append(percents, p.Percent)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}

	if stages[len(stages)-1] != domain.StageDone || percents[len(percents)-1] != 100 {
		t.Errorf("expected terminal done/100, got %s/%d",
			stages[len(stages)-1], percents[len(percents)-1])
	}
	for _, s := range stages {
		if s == domain.StageScoring {
			t.Error("empty index must not report a scoring stage")
		}
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards: %d after %d", percents[i], percents[i-1])
		}
	}
}

func TestRegisterThenSearchSelfMatch(t *testing.T) {
	engine := NewEngine(memindex.NewMemoryIndex(), embedding.NewMockEmbedder(64), 10)

	img := testImage(5)
	id, err := engine.Register(img, "Alice", "@alice", "TGS 2026")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a record id")
	}
	if _, err := engine.Register(testImage(9), "Bob", "@bob", ""); err != nil {
		t.Fatal(err)
	}

	var stages []domain.SearchStage
	candidates, err := engine.Search(img, "", func(p domain.SearchProgress) {
		stages = append(stages, p.Stage)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].AccountHandle != "@alice" {
		t.Fatalf("expected the registered account first, got %s", candidates[0].AccountHandle)
	}

	// Same pixels: embedding 1.0, hash 1.0, no query tag, shared max count.
	if got := candidates[0].TotalScore; math.Abs(got-0.805) > 1e-6 {
		t.Errorf("expected self-match total 0.805, got %f", got)
	}
	if candidates[0].MatchedImages[0].ImageID != id {
		t.Errorf("expected matched image %s, got %s", id, candidates[0].MatchedImages[0].ImageID)
	}

	want := []domain.SearchStage{
		domain.StageInitializing,
		domain.StageExtractingEmbedding,
		domain.StageSearching,
		domain.StageScoring,
		domain.StageDone,
	}
	if len(stages) != len(want) {
		t.Fatalf("expected %d progress updates, got %d", len(want), len(stages))
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("stage %d: expected %s, got %s", i, s, stages[i])
		}
	}
}

func TestSearchEventTagBoostsRanking(t *testing.T) {
	engine := NewEngine(memindex.NewMemoryIndex(), embedding.NewMockEmbedder(64), 10)

	tagged := testImage(11)
	if _, err := engine.Register(tagged, "Alice", "@alice", "Comiket 105"); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Register(testImage(12), "Bob", "@bob", "AX 2026"); err != nil {
		t.Fatal(err)
	}

	candidates, err := engine.Search(tagged, "Comiket 105", nil)
	if err != nil {
		t.Fatal(err)
	}
	if candidates[0].AccountHandle != "@alice" {
		t.Fatalf("expected @alice first, got %s", candidates[0].AccountHandle)
	}
	if candidates[0].MetadataScore != 0.2 {
		t.Errorf("expected exact tag bonus 0.2, got %f", candidates[0].MetadataScore)
	}
}

func TestSearchEmbedderFailure(t *testing.T) {
	engine := NewEngine(memindex.NewMemoryIndex(), brokenEmbedder{}, 10)

	if _, err := engine.Search(testImage(1), "", nil); err == nil {
		t.Fatal("expected search to fail with a dead embedder")
	}
	if _, err := engine.Register(testImage(1), "Alice", "@alice", ""); err == nil {
		t.Fatal("expected register to fail with a dead embedder")
	}
}

func TestSearchDimensionMismatchSurfaces(t *testing.T) {
	idx := memindex.NewMemoryIndex()
	if _, err := idx.Insert(domain.ImageRecord{
		Embedding:     []float32{1, 0, 0},
		AccountHandle: "@alice",
	}); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(idx, embedding.NewMockEmbedder(64), 10)
	_, err := engine.Search(testImage(2), "", nil)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStats(t *testing.T) {
	engine := NewEngine(memindex.NewMemoryIndex(), embedding.NewMockEmbedder(64), 10)

	for i, h := range []string{"@alice", "@alice", "@bob"} {
		if _, err := engine.Register(testImage(byte(20+i)), "n", h, ""); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := engine.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalImages != 3 {
		t.Errorf("expected 3 images, got %d", stats.TotalImages)
	}
	if stats.UniqueAccountCount != 2 {
		t.Errorf("expected 2 accounts, got %d", stats.UniqueAccountCount)
	}
	if !stats.EmbedderReady || stats.Model != "mock" {
		t.Errorf("unexpected embedder state: %+v", stats)
	}
}
