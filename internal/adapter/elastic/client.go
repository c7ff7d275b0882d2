// Package elastic implements the search engine port against a single
// Elasticsearch endpoint holding both the inverted index and the dense
// vectors. Lexical and vector sub-searches run concurrently.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"answer-engine/internal/domain"
)

// Client talks to Elasticsearch over its JSON search API.
type Client struct {
	BaseURL  string
	Index    string
	MinScore float64
	HTTP     *http.Client
	logger   *slog.Logger
}

// NewClient constructs a Client for the given index. If client is nil, a
// default http.Client is created with the given timeout.
func NewClient(baseURL, index string, minScore float64, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *Client {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Index:    index,
		MinScore: minScore,
		HTTP:     c,
		logger:   logger,
	}
}

type esHitSource struct {
	ChunkID  string `json:"chunk_id"`
	Text     string `json:"text"`
	Metadata struct {
		SourceFile string `json:"source_file"`
		PageNumber int    `json:"page_number"`
		Position   int    `json:"position"`
	} `json:"metadata"`
}

type esHit struct {
	ID     string      `json:"_id"`
	Score  float64     `json:"_score"`
	Source esHitSource `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

// Search runs the lexical match query and, when a query vector is present,
// the cosine-similarity script query concurrently against the same index.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResultSet, error) {
	start := time.Now()

	result := &domain.SearchResultSet{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := c.lexicalSearch(gctx, q)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		result.Lexical = hits
		return nil
	})

	if len(q.Vector) > 0 {
		g.Go(func() error {
			hits, err := c.vectorSearch(gctx, q)
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

	c.logger.Info("search_completed",
		slog.String("backend", "elastic"),
		slog.Int("lexical_hits", len(result.Lexical)),
		slog.Int("vector_hits", len(result.Vector)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return result, nil
}

func (c *Client) lexicalSearch(ctx context.Context, q domain.SearchQuery) ([]domain.EngineHit, error) {
	query := map[string]any{
		"match": map[string]any{
			"text": q.Text,
		},
	}
	if len(q.Filters) > 0 {
		query = map[string]any{
			"bool": map[string]any{
				"must":   []any{query},
				"filter": filterClauses(q.Filters),
			},
		}
	}

	body := map[string]any{
		"size":    q.Limit,
		"query":   query,
		"_source": []string{"text", "chunk_id", "metadata"},
	}
	return c.runSearch(ctx, body)
}

func (c *Client) vectorSearch(ctx context.Context, q domain.SearchQuery) ([]domain.EngineHit, error) {
	inner := map[string]any{"match_all": map[string]any{}}
	if len(q.Filters) > 0 {
		inner = map[string]any{
			"bool": map[string]any{
				"filter": filterClauses(q.Filters),
			},
		}
	}

	body := map[string]any{
		"size": q.Limit,
		"query": map[string]any{
			"script_score": map[string]any{
				"query": inner,
				"script": map[string]any{
					"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
					"params": map[string]any{
						"query_vector": q.Vector,
					},
				},
			},
		},
		"_source":   []string{"text", "chunk_id", "metadata"},
		"min_score": c.MinScore,
	}
	return c.runSearch(ctx, body)
}

func filterClauses(filters map[string]string) []any {
	clauses := make([]any, 0, len(filters))
	for key, value := range filters {
		clauses = append(clauses, map[string]any{
			"term": map[string]any{
				"metadata." + key: value,
			},
		})
	}
	return clauses
}

func (c *Client) runSearch(ctx context.Context, body map[string]any) ([]domain.EngineHit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.BaseURL, c.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call elasticsearch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elasticsearch returned %d: %s", resp.StatusCode, string(respBody))
	}

	var searchResp esSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]domain.EngineHit, 0, len(searchResp.Hits.Hits))
	for _, h := range searchResp.Hits.Hits {
		chunkID := h.Source.ChunkID
		if chunkID == "" {
			chunkID = h.ID
		}
		hits = append(hits, domain.EngineHit{
			Chunk: domain.Chunk{
				ID:   chunkID,
				Text: h.Source.Text,
				Metadata: domain.ChunkMetadata{
					SourceFile: h.Source.Metadata.SourceFile,
					PageNumber: h.Source.Metadata.PageNumber,
					Position:   h.Source.Metadata.Position,
				},
			},
			Score: h.Score,
		})
	}
	return hits, nil
}

var _ domain.SearchEngine = (*Client)(nil)
