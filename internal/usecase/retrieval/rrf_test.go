package retrieval_test

import (
	"testing"

	"answer-engine/internal/domain"
	"answer-engine/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fusedCandidate(id string, rank, lexRank, vecRank int) domain.FusedCandidate {
	return domain.FusedCandidate{
		ScoredCandidate: domain.ScoredCandidate{Chunk: domain.Chunk{ID: id, Text: "text " + id}},
		Rank:            rank,
		LexicalRank:     lexRank,
		VectorRank:      vecRank,
	}
}

func TestRRFOrder_BothRankingsBeatOne(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("A", 1, 1, 0), // only lexical
		fusedCandidate("B", 2, 2, 1), // both rankings
	}

	ranked := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 10)
	require.Len(t, ranked, 2)
	// B: 1/62 + 1/61 > A: 1/61
	assert.Equal(t, "B", ranked[0].Chunk.ID)
	assert.Equal(t, "A", ranked[1].Chunk.ID)
	assert.True(t, ranked[0].ViaFallback)
	assert.Equal(t, 1, ranked[0].FinalRank)
	assert.Equal(t, 2, ranked[1].FinalRank)
}

func TestRRFOrder_Deterministic(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("C", 1, 3, 1),
		fusedCandidate("A", 2, 1, 2),
		fusedCandidate("B", 3, 2, 3),
	}

	first := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 10)
	for i := 0; i < 20; i++ {
		again := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 10)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Chunk.ID, again[j].Chunk.ID)
			assert.Equal(t, first[j].RRFScore, again[j].RRFScore)
		}
	}
}

func TestRRFOrder_TieBreaksByChunkID(t *testing.T) {
	// Same rank positions in mirrored lists produce equal RRF scores.
	candidates := []domain.FusedCandidate{
		fusedCandidate("zz", 1, 1, 2),
		fusedCandidate("aa", 2, 2, 1),
	}

	ranked := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "aa", ranked[0].Chunk.ID)
	assert.Equal(t, "zz", ranked[1].Chunk.ID)
}

func TestRRFOrder_NoRankInputsKeepsFusedOrder(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("B", 1, 0, 0),
		fusedCandidate("A", 2, 0, 0),
	}

	ranked := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Chunk.ID, "incoming fused order is kept when no rankings exist")
	assert.Equal(t, "A", ranked[1].Chunk.ID)
}

func TestRRFOrder_TruncatesToTopK(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("A", 1, 1, 1),
		fusedCandidate("B", 2, 2, 2),
		fusedCandidate("C", 3, 3, 3),
	}

	ranked := retrieval.RRFOrder(candidates, retrieval.DefaultRRFK, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "A", ranked[0].Chunk.ID)
	assert.Equal(t, "B", ranked[1].Chunk.ID)
}

func TestRRFOrder_EmptyInput(t *testing.T) {
	assert.Empty(t, retrieval.RRFOrder(nil, retrieval.DefaultRRFK, 5))
	assert.Empty(t, retrieval.RRFOrder([]domain.FusedCandidate{fusedCandidate("A", 1, 1, 1)}, retrieval.DefaultRRFK, 0))
}
