package usecase

import (
	"fmt"
	"strings"

	"answer-engine/internal/domain"
)

// noRelevantInfoMessage is returned when retrieval produced nothing to
// answer from.
const noRelevantInfoMessage = "I couldn't find any relevant information to answer your question."

const extractivePreamble = "Based on the retrieved documents, here is relevant information:"

// buildExtractiveAnswer produces the deterministic fallback answer used
// when the generation service is unavailable: the leading portion of
// each window chunk, concatenated under a fixed preamble, with no
// model-authored synthesis. Identical inputs yield byte-identical
// output, which regression tests depend on.
func buildExtractiveAnswer(window []domain.RerankedCandidate) (string, []domain.Source) {
	if len(window) == 0 {
		return noRelevantInfoMessage, nil
	}

	var sb strings.Builder
	sb.WriteString(extractivePreamble)
	sb.WriteString("\n")
	sources := make([]domain.Source, 0, len(window))
	for _, rc := range window {
		sb.WriteString("\n")
		sb.WriteString(rc.Chunk.Text)
		sb.WriteString("\n")
		sources = append(sources, sourceFromCandidate(rc))
	}
	sb.WriteString(fmt.Sprintf("\n[Retrieved from %d document(s)]", len(window)))
	return sb.String(), sources
}
