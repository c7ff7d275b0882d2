// Package hybridsearch implements the search engine port on top of two
// specialised stores: Meilisearch for the inverted index and pgvector
// for dense retrieval. The two sub-searches run concurrently.
package hybridsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"answer-engine/internal/domain"
)

// LexicalSearcher is the keyword side of the hybrid engine.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, text string, filters map[string]string, limit int) ([]domain.EngineHit, error)
}

// VectorSearcher is the dense side of the hybrid engine.
type VectorSearcher interface {
	SearchVector(ctx context.Context, vector []float32, filters map[string]string, limit int) ([]domain.EngineHit, error)
}

// Engine combines a lexical and a vector searcher into a single
// domain.SearchEngine. Either sub-search failing fails the whole call;
// the orchestrator treats retrieval failures as fatal.
type Engine struct {
	lexical LexicalSearcher
	vector  VectorSearcher
	logger  *slog.Logger
}

func NewEngine(lexical LexicalSearcher, vector VectorSearcher, logger *slog.Logger) *Engine {
	return &Engine{
		lexical: lexical,
		vector:  vector,
		logger:  logger,
	}
}

// Search runs both sub-searches concurrently. The vector side is skipped
// when the query carries no vector, which is how the orchestrator degrades
// to lexical-only retrieval after an embedding failure.
func (e *Engine) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
	start := time.Now()

	result := &domain.SearchResultSet{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := e.lexical.SearchLexical(gctx, q.Text, q.Filters, q.Limit)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		result.Lexical = hits
		return nil
	})

	if len(q.Vector) > 0 {
		g.Go(func() error {
			hits, err := e.vector.SearchVector(gctx, q.Vector, q.Filters, q.Limit)
			if err != nil {
				return fmt.Errorf("vector search: %w", err)
			}
			result.Vector = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("search_completed",
		slog.String("backend", "hybridsearch"),
		slog.Int("lexical_hits", len(result.Lexical)),
		slog.Int("vector_hits", len(result.Vector)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return result, nil
}

var _ domain.SearchEngine = (*Engine)(nil)
