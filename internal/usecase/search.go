package usecase

import (
	"fmt"

	"photomatch/internal/adapter/phash"
	"photomatch/internal/domain"
	"photomatch/internal/port"
)

// ProgressFunc receives transient progress updates during one search
// call. May be nil.
type ProgressFunc func(domain.SearchProgress)

// Engine coordinates hashing, embedding extraction, index lookup and
// score fusion behind the two public operations, Search and Register.
//
// Calls may interleave freely; there is no transactional isolation, so a
// search racing a concurrent register may or may not observe the new
// record. Errors from any step surface unmodified — no retries, no
// degraded results.
type Engine struct {
	index    port.SimilarityIndex
	embedder port.Embedder
	topN     int
}

func NewEngine(index port.SimilarityIndex, embedder port.Embedder, topN int) *Engine {
	if topN <= 0 {
		topN = 10
	}
	return &Engine{
		index:    index,
		embedder: embedder,
		topN:     topN,
	}
}

// Stats summarizes the engine state for read-only introspection.
type Stats struct {
	TotalImages        int    `json:"total_images"`
	UniqueAccountCount int    `json:"unique_account_count"`
	EmbedderReady      bool   `json:"embedder_ready"`
	Model              string `json:"model"`
}

// Search ranks registered accounts against the query image. The pipeline
// is linear and forward-only: Initializing → ExtractingEmbedding →
// Searching → Scoring → Done; an empty index short-circuits Searching
// straight to Done with an empty result.
func (e *Engine) Search(img domain.Image, eventTag string, onProgress ProgressFunc) ([]domain.ScoredCandidate, error) {
	report := func(stage domain.SearchStage, percent int, message string) {
		if onProgress != nil {
			onProgress(domain.SearchProgress{Stage: stage, Percent: percent, Message: message})
		}
	}

	report(domain.StageInitializing, 0, "preparing search")
	if err := e.embedder.Ready(); err != nil {
		return nil, err
	}

	report(domain.StageExtractingEmbedding, 20, "extracting query embedding")
	queryVec, err := e.embedder.Embed(img)
	if err != nil {
		return nil, err
	}
	queryHash := phash.Hash(img)

	report(domain.StageSearching, 50, "scanning index")
	total, err := e.index.Count()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		// Nothing registered yet: a valid terminal state, not an error.
		report(domain.StageDone, 100, "index is empty")
		return []domain.ScoredCandidate{}, nil
	}

	results, err := e.index.QueryTopN(queryVec, e.topN)
	if err != nil {
		return nil, err
	}

	report(domain.StageScoring, 75, fmt.Sprintf("scoring %d candidate images", len(results)))
	accounts, err := e.index.UniqueAccounts()
	if err != nil {
		return nil, err
	}
	candidates := ScoreCandidates(results, queryHash, eventTag, accounts)

	report(domain.StageDone, 100, fmt.Sprintf("ranked %d accounts", len(candidates)))
	return candidates, nil
}

// Register extracts the embedding and perceptual hash for img and inserts
// a new record. This is the sole growth path of the corpus; records are
// append-only.
func (e *Engine) Register(img domain.Image, accountName, accountHandle, eventTag string) (string, error) {
	if err := e.embedder.Ready(); err != nil {
		return "", err
	}

	vec, err := e.embedder.Embed(img)
	if err != nil {
		return "", err
	}

	return e.index.Insert(domain.ImageRecord{
		Embedding:      vec,
		PerceptualHash: phash.Hash(img),
		AccountName:    accountName,
		AccountHandle:  accountHandle,
		EventTag:       eventTag,
	})
}

func (e *Engine) Stats() (Stats, error) {
	total, err := e.index.Count()
	if err != nil {
		return Stats{}, err
	}
	accounts, err := e.index.UniqueAccounts()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalImages:        total,
		UniqueAccountCount: len(accounts),
		EmbedderReady:      e.embedder.State() == port.ProviderReady,
		Model:              e.embedder.ModelName(),
	}, nil
}
