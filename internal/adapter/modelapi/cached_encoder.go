package modelapi

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"answer-engine/internal/domain"
)

// CachedEncoder wraps a VectorEncoder with an in-process LRU cache keyed
// by model version and input text. Repeated queries skip the embedding
// service entirely.
type CachedEncoder struct {
	inner  domain.VectorEncoder
	cache  *lru.Cache[string, []float32]
	logger *slog.Logger
}

// NewCachedEncoder constructs a CachedEncoder holding at most size entries.
func NewCachedEncoder(inner domain.VectorEncoder, size int, logger *slog.Logger) (*CachedEncoder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEncoder{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}, nil
}

func (c *CachedEncoder) cacheKey(text string) string {
	return c.inner.Version() + "\x00" + text
}

// Encode returns cached vectors where available and calls the inner
// encoder once for the remaining texts. Output order matches input order.
func (c *CachedEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		c.logger.Debug("embedding_cache_hit", slog.Int("text_count", len(texts)))
		return out, nil
	}

	encoded, err := c.inner.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = encoded[j]
		c.cache.Add(c.cacheKey(missTexts[j]), encoded[j])
	}

	c.logger.Debug("embedding_cache_filled",
		slog.Int("hit_count", len(texts)-len(missTexts)),
		slog.Int("miss_count", len(missTexts)))

	return out, nil
}

// Version returns the inner encoder's model identifier.
func (c *CachedEncoder) Version() string {
	return c.inner.Version()
}

var _ domain.VectorEncoder = (*CachedEncoder)(nil)
