package usecase

import (
	"strings"
	"testing"

	"answer-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(id, text string) domain.RerankedCandidate {
	return domain.RerankedCandidate{
		FusedCandidate: domain.FusedCandidate{
			ScoredCandidate: domain.ScoredCandidate{
				Chunk: domain.Chunk{ID: id, Text: text},
			},
		},
	}
}

func TestBuildContextWindow_DropsFromTail(t *testing.T) {
	window := buildContextWindow([]domain.RerankedCandidate{
		ranked("A", strings.Repeat("a", 400)),
		ranked("B", strings.Repeat("b", 400)),
		ranked("C", strings.Repeat("c", 400)),
	}, 800)

	require.Len(t, window, 2)
	assert.Equal(t, "A", window[0].Chunk.ID)
	assert.Equal(t, "B", window[1].Chunk.ID)
}

func TestBuildContextWindow_TruncatesLastChunkWhenWorthIt(t *testing.T) {
	window := buildContextWindow([]domain.RerankedCandidate{
		ranked("A", strings.Repeat("a", 300)),
		ranked("B", strings.Repeat("b", 300)),
	}, 450)

	require.Len(t, window, 2)
	assert.Len(t, window[1].Chunk.Text, 150)
}

func TestBuildContextWindow_SkipsTinyRemainder(t *testing.T) {
	window := buildContextWindow([]domain.RerankedCandidate{
		ranked("A", strings.Repeat("a", 300)),
		ranked("B", strings.Repeat("b", 300)),
	}, 350)

	// 50 remaining bytes are below the useful minimum.
	require.Len(t, window, 1)
	assert.Equal(t, "A", window[0].Chunk.ID)
}

func TestBuildContextWindow_ZeroBudget(t *testing.T) {
	assert.Empty(t, buildContextWindow([]domain.RerankedCandidate{ranked("A", "text")}, 0))
}

func TestTruncateAtRuneBoundary_NeverSplitsUTF8(t *testing.T) {
	s := "価格は10%上昇した"
	for n := 0; n <= len(s); n++ {
		cut := truncateAtRuneBoundary(s, n)
		assert.True(t, strings.HasPrefix(s, cut))
		assert.LessOrEqual(t, len(cut), n)
		for _, r := range cut {
			assert.NotEqual(t, '�', r)
		}
	}
}
