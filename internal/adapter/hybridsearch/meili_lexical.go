package hybridsearch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"answer-engine/internal/domain"
)

// MeiliLexical implements LexicalSearcher against a Meilisearch index of
// chunk documents. Ranking scores are requested so fusion can normalize
// them against the vector side.
type MeiliLexical struct {
	index meilisearch.IndexManager
}

func NewMeiliLexical(client meilisearch.ServiceManager, indexName string) *MeiliLexical {
	return &MeiliLexical{
		index: client.Index(indexName),
	}
}

func (m *MeiliLexical) SearchLexical(ctx context.Context, text string, filters map[string]string, limit int) ([]domain.EngineHit, error) {
	searchRequest := &meilisearch.SearchRequest{
		Limit:            int64(limit),
		ShowRankingScore: true,
	}
	if filter := buildFilter(filters); filter != "" {
		searchRequest.Filter = filter
	}

	result, err := m.index.Search(text, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	hits := make([]domain.EngineHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var hitMap map[string]interface{}
		if err := hit.DecodeInto(&hitMap); err != nil {
			continue
		}
		hits = append(hits, domain.EngineHit{
			Chunk: domain.Chunk{
				ID:   getString(hitMap, "chunk_id"),
				Text: getString(hitMap, "text"),
				Metadata: domain.ChunkMetadata{
					SourceFile: getString(hitMap, "source_file"),
					PageNumber: getInt(hitMap, "page_number"),
					Position:   getInt(hitMap, "position"),
				},
			},
			Score: getFloat(hitMap, "_rankingScore"),
		})
	}
	return hits, nil
}

// buildFilter renders the filter map as a Meilisearch filter expression.
// Values are quoted and embedded quotes escaped so user-supplied values
// cannot alter the expression. Keys are sorted for a stable expression.
func buildFilter(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("%s = %q", k, filters[k]))
	}
	return strings.Join(clauses, " AND ")
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return 0
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}

var _ LexicalSearcher = (*MeiliLexical)(nil)
