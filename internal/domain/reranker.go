package domain

import "context"

// RerankScore is one relevance score returned by the reranking service,
// aligned to the candidate at Index in the request order.
type RerankScore struct {
	Index int
	Score float64
}

// Reranker is the port to the external cross-encoder relevance service.
// Implementations must return exactly one score per candidate text; a
// response of any other length is an error. If an error occurs, callers
// fall back to local rank fusion.
type Reranker interface {
	// Rerank scores every candidate text against the query.
	Rerank(ctx context.Context, query string, texts []string) ([]RerankScore, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}
