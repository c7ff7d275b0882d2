package domain

import "context"

// VectorEncoder produces embeddings for a batch of texts. A single
// query is embedded as a one-element batch. Returned vectors are
// aligned to the input order; each must have the deployment's
// configured dimension.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
