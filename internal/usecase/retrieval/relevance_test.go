package retrieval_test

import (
	"testing"

	"answer-engine/internal/domain"
	"answer-engine/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderByRelevance_SortsDescending(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("A", 1, 1, 1),
		fusedCandidate("B", 2, 2, 2),
		fusedCandidate("C", 3, 3, 3),
	}
	scores := []domain.RerankScore{
		{Index: 0, Score: 0.2},
		{Index: 1, Score: 0.9},
		{Index: 2, Score: 0.5},
	}

	ranked, err := retrieval.OrderByRelevance(candidates, scores, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].Chunk.ID)
	assert.Equal(t, "C", ranked[1].Chunk.ID)
	assert.Equal(t, "A", ranked[2].Chunk.ID)
	assert.False(t, ranked[0].ViaFallback)
	assert.Equal(t, 0.9, ranked[0].RelevanceScore)
}

func TestOrderByRelevance_TieBreaksByIncomingRank(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("B", 1, 1, 1),
		fusedCandidate("A", 2, 2, 2),
	}
	scores := []domain.RerankScore{
		{Index: 0, Score: 0.5},
		{Index: 1, Score: 0.5},
	}

	ranked, err := retrieval.OrderByRelevance(candidates, scores, 10)
	require.NoError(t, err)
	assert.Equal(t, "B", ranked[0].Chunk.ID, "equal relevance keeps the better fused rank first")
}

func TestOrderByRelevance_LengthMismatchFails(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("A", 1, 1, 1),
		fusedCandidate("B", 2, 2, 2),
	}
	_, err := retrieval.OrderByRelevance(candidates, []domain.RerankScore{{Index: 0, Score: 0.4}}, 10)
	assert.Error(t, err)
}

func TestOrderByRelevance_BadIndexFails(t *testing.T) {
	candidates := []domain.FusedCandidate{fusedCandidate("A", 1, 1, 1)}

	_, err := retrieval.OrderByRelevance(candidates, []domain.RerankScore{{Index: 5, Score: 0.4}}, 10)
	assert.Error(t, err)

	_, err = retrieval.OrderByRelevance(
		[]domain.FusedCandidate{fusedCandidate("A", 1, 1, 1), fusedCandidate("B", 2, 2, 2)},
		[]domain.RerankScore{{Index: 0, Score: 0.4}, {Index: 0, Score: 0.6}}, 10)
	assert.Error(t, err, "duplicate index means a misaligned response")
}

func TestOrderByRelevance_TruncatesToTopK(t *testing.T) {
	candidates := []domain.FusedCandidate{
		fusedCandidate("A", 1, 1, 1),
		fusedCandidate("B", 2, 2, 2),
		fusedCandidate("C", 3, 3, 3),
	}
	scores := []domain.RerankScore{
		{Index: 0, Score: 0.1},
		{Index: 1, Score: 0.8},
		{Index: 2, Score: 0.4},
	}

	ranked, err := retrieval.OrderByRelevance(candidates, scores, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Chunk.ID)
	assert.Equal(t, "C", ranked[1].Chunk.ID)
	assert.Equal(t, 1, ranked[0].FinalRank)
	assert.Equal(t, 2, ranked[1].FinalRank)
}
