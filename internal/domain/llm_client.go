package domain

import "context"

// GenerationRequest carries the pieces of a grounded generation call.
type GenerationRequest struct {
	SystemInstructions string
	Query              string
	Context            string
	MaxTokens          int
}

// LLMResponse carries the model output and whether generation finished.
type LLMResponse struct {
	Text string
	Done bool
}

// LLMClient is the port to the answer-generation service. A non-success
// status or an empty body is an error; callers fall back to the
// deterministic extractive answer.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*LLMResponse, error)
	Version() string
}
