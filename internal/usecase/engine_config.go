package usecase

import (
	"fmt"
	"math"
	"time"

	"answer-engine/internal/usecase/retrieval"
)

// EngineConfig carries every deployment-tuned knob of the answer
// pipeline. It is passed explicitly at construction so concurrent
// queries with different tuning can coexist and tests can inject
// deterministic values.
type EngineConfig struct {
	// LexicalWeight and VectorWeight control hybrid fusion and must
	// sum to 1.0. The source deployments disagree on the right split
	// (0.3/0.7 vs 0.5/0.5), so this is configuration, not a constant.
	LexicalWeight float64
	VectorWeight  float64

	// EmbeddingDim is the fixed vector dimension D of the deployment.
	// An embedding response of any other length counts as a failure.
	EmbeddingDim int

	// RRFK is the reciprocal-rank-fusion damping constant used by the
	// rerank fallback.
	RRFK float64

	// MinScore drops engine hits below the floor before fusion.
	// Zero disables it.
	MinScore float64

	// Defaults applied when Options leave a field unset.
	TopNRetrieve  int
	TopKRerank    int
	ContextBudget int

	// MaxTokens caps the generation response. Zero leaves it to the
	// generation service.
	MaxTokens int

	// Per-stage timeouts for the outbound calls.
	EmbedTimeout    time.Duration
	SearchTimeout   time.Duration
	RerankTimeout   time.Duration
	GenerateTimeout time.Duration

	// RetryBackoff is the pause before the single permitted retry.
	RetryBackoff time.Duration
}

// DefaultEngineConfig returns the design defaults (lexical 0.3 /
// vector 0.7, dimension 1024, RRF K=60).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LexicalWeight:   0.3,
		VectorWeight:    0.7,
		EmbeddingDim:    1024,
		RRFK:            retrieval.DefaultRRFK,
		MinScore:        0,
		TopNRetrieve:    10,
		TopKRerank:      10,
		ContextBudget:   2000,
		MaxTokens:       768,
		EmbedTimeout:    10 * time.Second,
		SearchTimeout:   10 * time.Second,
		RerankTimeout:   30 * time.Second,
		GenerateTimeout: 60 * time.Second,
		RetryBackoff:    200 * time.Millisecond,
	}
}

// Validate checks the configuration is internally consistent.
func (c EngineConfig) Validate() error {
	if c.LexicalWeight < 0 || c.VectorWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got lexical=%v vector=%v", c.LexicalWeight, c.VectorWeight)
	}
	if math.Abs(c.LexicalWeight+c.VectorWeight-1.0) > 1e-9 {
		return fmt.Errorf("fusion weights must sum to 1.0, got %v", c.LexicalWeight+c.VectorWeight)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	if c.RRFK <= 0 {
		return fmt.Errorf("rrf k must be positive, got %v", c.RRFK)
	}
	if c.TopNRetrieve < 0 || c.TopKRerank < 0 {
		return fmt.Errorf("top-k defaults must not be negative")
	}
	if c.ContextBudget <= 0 {
		return fmt.Errorf("context budget must be positive, got %d", c.ContextBudget)
	}
	for name, d := range map[string]time.Duration{
		"embed":    c.EmbedTimeout,
		"search":   c.SearchTimeout,
		"rerank":   c.RerankTimeout,
		"generate": c.GenerateTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s timeout must be positive, got %v", name, d)
		}
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative, got %v", c.RetryBackoff)
	}
	return nil
}

// fusion projects the config onto the retrieval package's view of it.
func (c EngineConfig) fusion() retrieval.FusionConfig {
	return retrieval.FusionConfig{
		LexicalWeight: c.LexicalWeight,
		VectorWeight:  c.VectorWeight,
		MinScore:      c.MinScore,
	}
}
