package retrieval

import (
	"fmt"
	"sort"

	"answer-engine/internal/domain"
)

// OrderByRelevance applies externally computed relevance scores to the
// fused candidates and returns them sorted by relevance descending,
// ties broken by incoming fused rank ascending, truncated to topK.
//
// The score list must cover every candidate exactly once; a response of
// any other shape means the reranking service misbehaved and the caller
// falls back to RRF.
func OrderByRelevance(candidates []domain.FusedCandidate, scores []domain.RerankScore, topK int) ([]domain.RerankedCandidate, error) {
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(candidates))
	}

	byIndex := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			return nil, fmt.Errorf("reranker score index %d out of range for %d candidates", s.Index, len(candidates))
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("reranker scored candidate %d twice", s.Index)
		}
		seen[s.Index] = true
		byIndex[s.Index] = s.Score
	}

	ranked := make([]domain.RerankedCandidate, len(candidates))
	for i, fc := range candidates {
		ranked[i] = domain.RerankedCandidate{
			FusedCandidate: fc,
			RelevanceScore: byIndex[i],
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RelevanceScore != ranked[j].RelevanceScore {
			return ranked[i].RelevanceScore > ranked[j].RelevanceScore
		}
		return ranked[i].Rank < ranked[j].Rank
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	for i := range ranked {
		ranked[i].FinalRank = i + 1
	}
	return ranked, nil
}
