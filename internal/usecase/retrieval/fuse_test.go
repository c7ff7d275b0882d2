package retrieval_test

import (
	"testing"

	"answer-engine/internal/domain"
	"answer-engine/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(id string, score float64) domain.EngineHit {
	return domain.EngineHit{
		Chunk: domain.Chunk{ID: id, Text: "text for " + id},
		Score: score,
	}
}

func defaultFusion() retrieval.FusionConfig {
	return retrieval.FusionConfig{LexicalWeight: 0.3, VectorWeight: 0.7}
}

func TestFuse_AgreementRanksFirst(t *testing.T) {
	// Both modes favor A over B; A must win the fused ordering.
	lexical := []domain.EngineHit{hit("A", 12.5), hit("B", 4.1)}
	vector := []domain.EngineHit{hit("A", 0.92), hit("B", 0.55)}

	fused := retrieval.Fuse(lexical, vector, defaultFusion(), 10)
	require.Len(t, fused, 2)
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.Equal(t, "B", fused[1].Chunk.ID)
	assert.Equal(t, 1, fused[0].Rank)
	assert.Equal(t, 2, fused[1].Rank)
	assert.Greater(t, fused[0].FusedScore, fused[1].FusedScore)
}

func TestFuse_RecordsModeRanks(t *testing.T) {
	lexical := []domain.EngineHit{hit("A", 9.0), hit("B", 3.0)}
	vector := []domain.EngineHit{hit("B", 0.9), hit("C", 0.4)}

	fused := retrieval.Fuse(lexical, vector, defaultFusion(), 10)
	require.Len(t, fused, 3)

	byID := map[string]domain.FusedCandidate{}
	for _, fc := range fused {
		byID[fc.Chunk.ID] = fc
	}
	assert.Equal(t, 1, byID["A"].LexicalRank)
	assert.Equal(t, 0, byID["A"].VectorRank, "A is absent from the vector list")
	assert.Equal(t, 2, byID["B"].LexicalRank)
	assert.Equal(t, 1, byID["B"].VectorRank)
	assert.Equal(t, 0, byID["C"].LexicalRank)
	assert.Equal(t, 2, byID["C"].VectorRank)
}

func TestFuse_TieBreaksByChunkID(t *testing.T) {
	// Identical scores in both lists make every fused score equal;
	// ordering must still be total, ascending by chunk ID.
	lexical := []domain.EngineHit{hit("zeta", 5.0), hit("alpha", 5.0), hit("mid", 5.0)}

	fused := retrieval.Fuse(lexical, nil, defaultFusion(), 10)
	require.Len(t, fused, 3)
	assert.Equal(t, "alpha", fused[0].Chunk.ID)
	assert.Equal(t, "mid", fused[1].Chunk.ID)
	assert.Equal(t, "zeta", fused[2].Chunk.ID)
}

func TestFuse_ScaleInvariant(t *testing.T) {
	lexical := []domain.EngineHit{hit("A", 7.0), hit("B", 3.0), hit("C", 1.0)}
	vector := []domain.EngineHit{hit("B", 0.8), hit("C", 0.6), hit("A", 0.2)}

	base := retrieval.Fuse(lexical, vector, defaultFusion(), 10)

	scaled := make([]domain.EngineHit, len(lexical))
	for i, h := range lexical {
		h.Score *= 1000
		scaled[i] = h
	}
	rescored := retrieval.Fuse(scaled, vector, defaultFusion(), 10)

	require.Equal(t, len(base), len(rescored))
	for i := range base {
		assert.Equal(t, base[i].Chunk.ID, rescored[i].Chunk.ID,
			"multiplying one list by a positive constant must not change the ordering")
	}
}

func TestFuse_DegenerateUniformScores(t *testing.T) {
	// max == min: every candidate normalizes to 1.0 for that list.
	lexical := []domain.EngineHit{hit("A", 2.0), hit("B", 2.0)}
	vector := []domain.EngineHit{hit("A", 0.9)}

	fused := retrieval.Fuse(lexical, vector, defaultFusion(), 10)
	require.Len(t, fused, 2)
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.InDelta(t, 0.3*1.0+0.7*1.0, fused[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.3*1.0, fused[1].FusedScore, 1e-9)
}

func TestFuse_TruncatesToTopN(t *testing.T) {
	lexical := []domain.EngineHit{hit("A", 5.0), hit("B", 4.0), hit("C", 3.0), hit("D", 2.0)}

	fused := retrieval.Fuse(lexical, nil, defaultFusion(), 2)
	require.Len(t, fused, 2)
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.Equal(t, "B", fused[1].Chunk.ID)
}

func TestFuse_TopNZeroYieldsNothing(t *testing.T) {
	lexical := []domain.EngineHit{hit("A", 5.0)}
	assert.Empty(t, retrieval.Fuse(lexical, nil, defaultFusion(), 0))
}

func TestFuse_MinScoreFloor(t *testing.T) {
	cfg := defaultFusion()
	cfg.MinScore = 0.1
	vector := []domain.EngineHit{hit("A", 0.9), hit("B", 0.05)}

	fused := retrieval.Fuse(nil, vector, cfg, 10)
	require.Len(t, fused, 1)
	assert.Equal(t, "A", fused[0].Chunk.ID)
}

func TestFuse_NoDuplicateChunkIDs(t *testing.T) {
	lexical := []domain.EngineHit{hit("A", 5.0), hit("B", 1.0)}
	vector := []domain.EngineHit{hit("A", 0.7), hit("B", 0.6)}

	fused := retrieval.Fuse(lexical, vector, defaultFusion(), 10)
	seen := map[string]bool{}
	for _, fc := range fused {
		assert.False(t, seen[fc.Chunk.ID], "chunk %s appears twice", fc.Chunk.ID)
		seen[fc.Chunk.ID] = true
	}
}
