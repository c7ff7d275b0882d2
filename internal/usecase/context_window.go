package usecase

import (
	"unicode/utf8"

	"answer-engine/internal/domain"
)

// minPartialChunk is the smallest leading slice of a chunk worth
// including when the budget is nearly spent.
const minPartialChunk = 100

// buildContextWindow selects reranked candidates into a character
// budget, dropping from the tail first. A chunk that does not fit whole
// is truncated to the remaining budget when enough of it survives to be
// useful. The returned candidates carry the (possibly truncated) text
// that actually entered the window.
func buildContextWindow(ranked []domain.RerankedCandidate, budget int) []domain.RerankedCandidate {
	if budget <= 0 {
		return nil
	}

	var included []domain.RerankedCandidate
	used := 0
	for _, rc := range ranked {
		remaining := budget - used
		if remaining <= 0 {
			break
		}
		text := rc.Chunk.Text
		if len(text) > remaining {
			if remaining < minPartialChunk {
				break
			}
			text = truncateAtRuneBoundary(text, remaining)
		}
		rc.Chunk.Text = text
		included = append(included, rc)
		used += len(text)
	}
	return included
}

// truncateAtRuneBoundary cuts s to at most n bytes without splitting a
// UTF-8 sequence.
func truncateAtRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
