package retrieval

import (
	"sort"

	"answer-engine/internal/domain"
)

// DefaultRRFK is the standard reciprocal-rank-fusion damping constant.
// It de-weights rank-1 dominance without needing score magnitudes.
const DefaultRRFK = 60.0

// RRFOrder orders candidates by Reciprocal Rank Fusion over the rank
// positions each one already holds in the lexical-only and vector-only
// lists, recovered from the fused candidates rather than a second
// retrieval call:
//
//	rrf(c) = sum over available rankings r of 1 / (k + rank_r(c))
//
// A candidate absent from a ranking contributes 0 for it. Ties break by
// ascending chunk ID. When no candidate carries any rank position the
// incoming fused order is returned unchanged; an unranked-but-present
// result set is still usable.
func RRFOrder(candidates []domain.FusedCandidate, k float64, topK int) []domain.RerankedCandidate {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultRRFK
	}

	ranked := make([]domain.RerankedCandidate, len(candidates))
	anyRank := false
	for i, fc := range candidates {
		var score float64
		if fc.LexicalRank > 0 {
			score += 1.0 / (k + float64(fc.LexicalRank))
			anyRank = true
		}
		if fc.VectorRank > 0 {
			score += 1.0 / (k + float64(fc.VectorRank))
			anyRank = true
		}
		ranked[i] = domain.RerankedCandidate{
			FusedCandidate: fc,
			RRFScore:       score,
			ViaFallback:    true,
		}
	}

	if anyRank {
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].RRFScore != ranked[j].RRFScore {
				return ranked[i].RRFScore > ranked[j].RRFScore
			}
			return ranked[i].Chunk.ID < ranked[j].Chunk.ID
		})
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	for i := range ranked {
		ranked[i].FinalRank = i + 1
	}
	return ranked
}
