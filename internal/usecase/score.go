package usecase

import (
	"math"
	"sort"
	"strings"

	"photomatch/internal/adapter/phash"
	"photomatch/internal/domain"
)

// Fusion weights for combining the per-image signals into one score.
// Fixed by design; the ranking is meant to be reproducible, not tunable.
const (
	weightEmbedding = 0.50
	weightHash      = 0.30
	weightMetadata  = 0.15
	weightFrequency = 0.05

	metadataExactBonus     = 0.2
	metadataSubstringBonus = 0.1
	frequencyBonusCeiling  = 0.1
)

// ScoreCandidates fuses per-image signals into one ranked ScoredCandidate
// per distinct account handle in results.
//
// Within each account the single image maximizing the weighted sum of
// embedding, hash and metadata wins; its component scores carry the
// account. MatchedImages still lists every candidate image of the
// account. accounts must cover the whole index, not just the candidate
// window: the frequency signal is relative to the global maximum count.
//
// Metadata and frequency are sub-range scaled (0–0.2 and 0–0.1) before
// the fusion weights apply again, so they contribute at most 0.03 and
// 0.005 to the total.
func ScoreCandidates(results []domain.SearchResult, queryHash, eventTag string, accounts []domain.AccountCount) []domain.ScoredCandidate {
	if len(results) == 0 {
		return []domain.ScoredCandidate{}
	}

	maxCount := 0
	countByHandle := make(map[string]int, len(accounts))
	for _, a := range accounts {
		countByHandle[a.Handle] = a.Count
		if a.Count > maxCount {
			maxCount = a.Count
		}
	}

	var order []string
	grouped := make(map[string]*domain.ScoredCandidate)
	bestPartial := make(map[string]float64)

	for _, res := range results {
		rec := res.Record
		hashScore := phash.Similarity(queryHash, rec.PerceptualHash)
		metaScore := metadataBonus(eventTag, rec.EventTag)
		partial := res.Score*weightEmbedding + hashScore*weightHash + metaScore*weightMetadata

		cand, ok := grouped[rec.AccountHandle]
		if !ok {
			cand = &domain.ScoredCandidate{
				AccountName:   rec.AccountName,
				AccountHandle: rec.AccountHandle,
			}
			grouped[rec.AccountHandle] = cand
			bestPartial[rec.AccountHandle] = math.Inf(-1)
			order = append(order, rec.AccountHandle)
		}

		cand.MatchedImages = append(cand.MatchedImages, domain.MatchedImage{
			ImageID: rec.ID,
			Score:   res.Score,
		})

		if partial > bestPartial[rec.AccountHandle] {
			bestPartial[rec.AccountHandle] = partial
			cand.EmbeddingScore = res.Score
			cand.HashScore = hashScore
			cand.MetadataScore = metaScore
		}
	}

	candidates := make([]domain.ScoredCandidate, 0, len(order))
	for _, handle := range order {
		cand := grouped[handle]
		if maxCount > 0 {
			cand.FrequencyScore = float64(countByHandle[handle]) / float64(maxCount) * frequencyBonusCeiling
		}
		cand.ImageCount = len(cand.MatchedImages)
		cand.TotalScore = bestPartial[handle] + cand.FrequencyScore*weightFrequency
		candidates = append(candidates, *cand)
	}

	// Stable keeps first-appearance (embedding-rank) order on ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalScore > candidates[j].TotalScore
	})
	return candidates
}

// metadataBonus scores event-tag agreement: exact match 0.2, one tag
// containing the other 0.1, otherwise 0. No bonus without tags on both
// sides.
func metadataBonus(queryTag, recordTag string) float64 {
	if queryTag == "" || recordTag == "" {
		return 0
	}
	if queryTag == recordTag {
		return metadataExactBonus
	}
	if strings.Contains(queryTag, recordTag) || strings.Contains(recordTag, queryTag) {
		return metadataSubstringBonus
	}
	return 0
}
