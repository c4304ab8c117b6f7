package domain

import "time"

// Image is a decoded bitmap in RGBA order, 4 bytes per pixel, row-major.
// Decoding happens at the edges of the system; everything inside the
// engine consumes raw pixels only.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// ImageRecord is one registered photo of an account. Records are created
// by Register, read by every subsequent search and never mutated.
type ImageRecord struct {
	ID             string    `json:"id"`
	Embedding      []float32 `json:"embedding"`
	PerceptualHash string    `json:"perceptual_hash"`
	AccountName    string    `json:"account_name"`
	AccountHandle  string    `json:"account_handle"`
	EventTag       string    `json:"event_tag,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SearchResult pairs a stored record with its cosine similarity to the
// query embedding. Produced only by SimilarityIndex.QueryTopN.
type SearchResult struct {
	Record ImageRecord
	Score  float64
}

// MatchedImage is one candidate image shown under a scored account.
type MatchedImage struct {
	ImageID string  `json:"image_id"`
	Score   float64 `json:"score"`
}

// ScoredCandidate is one account's fused ranking entry. The component
// scores come from the account's single best image; MatchedImages lists
// every candidate image of the account in the result window.
type ScoredCandidate struct {
	AccountName    string         `json:"account_name"`
	AccountHandle  string         `json:"account_handle"`
	EmbeddingScore float64        `json:"embedding_score"`
	HashScore      float64        `json:"hash_score"`
	MetadataScore  float64        `json:"metadata_score"`
	FrequencyScore float64        `json:"frequency_score"`
	TotalScore     float64        `json:"total_score"`
	MatchedImages  []MatchedImage `json:"matched_images"`
	ImageCount     int            `json:"image_count"`
}

// AccountCount is one distinct account handle with its registration count.
type AccountCount struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Count  int    `json:"count"`
}

// SearchStage identifies a step of the search pipeline.
type SearchStage string

const (
	StageInitializing        SearchStage = "initializing"
	StageExtractingEmbedding SearchStage = "extracting_embedding"
	StageSearching           SearchStage = "searching"
	StageScoring             SearchStage = "scoring"
	StageDone                SearchStage = "done"
)

// SearchProgress is a transient progress update emitted during one search
// call. Percent only moves forward within a call.
type SearchProgress struct {
	Stage   SearchStage
	Percent int
	Message string
}
