package hybridsearch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"answer-engine/internal/domain"
)

// allowed filter columns on the chunks table; anything else is ignored
// rather than interpolated into SQL.
var filterColumns = map[string]string{
	"source_file": "source_file",
	"page_number": "page_number",
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PgVectorStore implements VectorSearcher over a pgvector-backed chunks
// table. Cosine distance is converted to a similarity in [0, 1] so fusion
// sees higher-is-better scores.
type PgVectorStore struct {
	pool rowQuerier
}

func NewPgVectorStore(pool *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{pool: pool}
}

func buildVectorQuery(vector []float32, filters map[string]string, limit int) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT chunk_id, text, source_file, page_number, position,
		       1 - (embedding <=> $1) AS score
		FROM chunks
	`)

	args := []interface{}{pgvector.NewVector(vector)}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		if _, ok := filterColumns[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var conditions []string
	for _, key := range keys {
		args = append(args, filters[key])
		conditions = append(conditions, fmt.Sprintf("%s = $%d", filterColumns[key], len(args)))
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args)))

	return sb.String(), args
}

func (s *PgVectorStore) SearchVector(ctx context.Context, vector []float32, filters map[string]string, limit int) ([]domain.EngineHit, error) {
	query, args := buildVectorQuery(vector, filters, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.EngineHit
	for rows.Next() {
		var hit domain.EngineHit
		if err := rows.Scan(
			&hit.Chunk.ID,
			&hit.Chunk.Text,
			&hit.Chunk.Metadata.SourceFile,
			&hit.Chunk.Metadata.PageNumber,
			&hit.Chunk.Metadata.Position,
			&hit.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}
	return hits, nil
}

var _ VectorSearcher = (*PgVectorStore)(nil)
