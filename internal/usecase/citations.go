package usecase

import (
	"regexp"
	"strings"

	"answer-engine/internal/domain"
)

var citationMarker = regexp.MustCompile(`\[chunk:([^\[\]\s]+)\]`)

// snippetLength is how much leading chunk text a source reference
// carries back to the caller.
const snippetLength = 200

// parseCitations recovers the chunks the model actually cited via
// [chunk:<id>] markers, in order of first appearance, restricted to the
// chunks that were in the context window. Markers referencing unknown
// chunks are dropped rather than failing the answer. When the model
// cited nothing recognizable, every window chunk is credited so the
// caller never receives an answer without its grounding.
func parseCitations(answerText string, window []domain.RerankedCandidate) []domain.Source {
	allowed := make(map[string]domain.RerankedCandidate, len(window))
	for _, rc := range window {
		allowed[rc.Chunk.ID] = rc
	}

	var sources []domain.Source
	cited := make(map[string]bool)
	for _, m := range citationMarker.FindAllStringSubmatch(answerText, -1) {
		id := m[1]
		rc, ok := allowed[id]
		if !ok || cited[id] {
			continue
		}
		cited[id] = true
		sources = append(sources, sourceFromCandidate(rc))
	}

	if len(sources) == 0 {
		for _, rc := range window {
			sources = append(sources, sourceFromCandidate(rc))
		}
	}
	return sources
}

// stripCitationMarkers removes the machine-readable markers from the
// text shown to the caller, collapsing the space they leave behind.
func stripCitationMarkers(answerText string) string {
	cleaned := citationMarker.ReplaceAllString(answerText, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	return strings.TrimSpace(cleaned)
}

func sourceFromCandidate(rc domain.RerankedCandidate) domain.Source {
	return domain.Source{
		ChunkID:    rc.Chunk.ID,
		SourceFile: rc.Chunk.Metadata.SourceFile,
		PageNumber: rc.Chunk.Metadata.PageNumber,
		Snippet:    truncateAtRuneBoundary(rc.Chunk.Text, snippetLength),
	}
}
