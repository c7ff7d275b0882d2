// Package retrieval holds the pure ranking arithmetic of the query
// pipeline: score normalization, weighted hybrid fusion, reciprocal
// rank fusion and relevance ordering. Everything here is deterministic;
// the orchestrator owns timeouts and fallback policy.
package retrieval

import (
	"sort"

	"answer-engine/internal/domain"
)

// FusionConfig carries the deployment-tuned fusion parameters.
// LexicalWeight and VectorWeight must sum to 1.0.
type FusionConfig struct {
	LexicalWeight float64
	VectorWeight  float64
	// MinScore drops engine hits whose native score is below the
	// floor before normalization. Zero disables the floor.
	MinScore float64
}

// Fuse merges the lexical and vector ranked lists into one ordering.
//
// Each list is min-max normalized over its own returned set so the
// engine's native scales never leak into the fused score. A candidate
// missing from one list contributes 0 for that list. Ties on the fused
// score break by ascending chunk ID so the ordering is total and
// reproducible. The result is truncated to topN.
func Fuse(lexical, vector []domain.EngineHit, cfg FusionConfig, topN int) []domain.FusedCandidate {
	if topN <= 0 {
		return nil
	}

	lexical = applyFloor(lexical, cfg.MinScore)
	vector = applyFloor(vector, cfg.MinScore)

	normLex := normalize(lexical)
	normVec := normalize(vector)

	merged := make(map[string]*domain.FusedCandidate)
	for i, hit := range lexical {
		merged[hit.Chunk.ID] = &domain.FusedCandidate{
			ScoredCandidate: domain.ScoredCandidate{
				Chunk:        hit.Chunk,
				LexicalScore: hit.Score,
			},
			LexicalRank: i + 1,
			FusedScore:  cfg.LexicalWeight * normLex[i],
		}
	}
	for i, hit := range vector {
		if fc, ok := merged[hit.Chunk.ID]; ok {
			fc.VectorScore = hit.Score
			fc.VectorRank = i + 1
			fc.FusedScore += cfg.VectorWeight * normVec[i]
			continue
		}
		merged[hit.Chunk.ID] = &domain.FusedCandidate{
			ScoredCandidate: domain.ScoredCandidate{
				Chunk:       hit.Chunk,
				VectorScore: hit.Score,
			},
			VectorRank: i + 1,
			FusedScore: cfg.VectorWeight * normVec[i],
		}
	}

	fused := make([]domain.FusedCandidate, 0, len(merged))
	for _, fc := range merged {
		fused = append(fused, *fc)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].Chunk.ID < fused[j].Chunk.ID
	})

	if len(fused) > topN {
		fused = fused[:topN]
	}
	for i := range fused {
		fused[i].Rank = i + 1
	}
	return fused
}

// normalize maps native scores onto [0,1] with min-max scaling over the
// returned set. When every score is identical the whole list maps to
// 1.0 rather than dividing by zero.
func normalize(hits []domain.EngineHit) []float64 {
	if len(hits) == 0 {
		return nil
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}

	norms := make([]float64, len(hits))
	if max == min {
		for i := range norms {
			norms[i] = 1.0
		}
		return norms
	}
	for i, h := range hits {
		norms[i] = (h.Score - min) / (max - min)
	}
	return norms
}

func applyFloor(hits []domain.EngineHit, minScore float64) []domain.EngineHit {
	if minScore <= 0 {
		return hits
	}
	kept := make([]domain.EngineHit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= minScore {
			kept = append(kept, h)
		}
	}
	return kept
}
