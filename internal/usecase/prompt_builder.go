package usecase

import (
	"fmt"
	"strings"

	"answer-engine/internal/domain"
)

// PromptBuilder renders the grounding prompt sent to the generation
// service.
type PromptBuilder interface {
	Build(query, contextText string) (system string, user string, err error)
}

// GroundedPromptBuilder produces a prompt that confines the model to
// the supplied context and requires [chunk:<id>] citation markers,
// which the citation parser recovers afterwards.
type GroundedPromptBuilder struct {
	additionalInstructions []string
}

// NewGroundedPromptBuilder creates a builder with optional extra
// instruction lines appended to the system message.
func NewGroundedPromptBuilder(additionalInstructions ...string) *GroundedPromptBuilder {
	return &GroundedPromptBuilder{additionalInstructions: additionalInstructions}
}

// Build renders the system instructions and the user message.
func (b *GroundedPromptBuilder) Build(query, contextText string) (string, string, error) {
	if strings.TrimSpace(query) == "" {
		return "", "", fmt.Errorf("query is required")
	}

	instructions := []string{
		"You are an assistant that answers questions using ONLY the documents inside <context>.",
		"Every document carries a chunk id. After each statement taken from a document, append its marker in the form [chunk:<id>].",
		"If the context does not contain the answer, say so plainly instead of inventing one.",
		"Do not use any knowledge that is not in the context.",
	}
	instructions = append(instructions, b.additionalInstructions...)

	var sys strings.Builder
	for _, line := range instructions {
		sys.WriteString(line)
		sys.WriteString("\n")
	}

	var user strings.Builder
	user.WriteString("<context>\n")
	user.WriteString(contextText)
	user.WriteString("</context>\n\n")
	user.WriteString("Question: ")
	user.WriteString(query)
	user.WriteString("\n\nAnswer:")

	return sys.String(), user.String(), nil
}

// renderContext lays the included candidates out as tagged documents.
// Identical candidates always produce an identical context string.
func renderContext(included []domain.RerankedCandidate) string {
	var sb strings.Builder
	for _, rc := range included {
		sb.WriteString("<document chunk_id=\"")
		sb.WriteString(rc.Chunk.ID)
		sb.WriteString("\">\n")
		sb.WriteString(rc.Chunk.Text)
		sb.WriteString("\n</document>\n")
	}
	return sb.String()
}
