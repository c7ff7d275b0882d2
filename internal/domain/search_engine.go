package domain

import "context"

// EngineHit is a single hit from one ranking mode of the search engine,
// carrying the engine-native score for that mode.
type EngineHit struct {
	Chunk Chunk
	Score float64
}

// SearchQuery is the combined request the hybrid retriever issues.
// Vector may be a zero vector, in which case implementations skip the
// vector-nearest-neighbor mode and return an empty vector list.
type SearchQuery struct {
	Text    string
	Vector  []float32
	Limit   int
	Filters map[string]string
}

// SearchResultSet holds the two independently ranked lists the engine
// returned, each ordered by its own native score descending.
type SearchResultSet struct {
	Lexical []EngineHit
	Vector  []EngineHit
}

// SearchEngine is the port to the external vector/lexical search
// engine. Implementations return both ranking modes for one query; a
// transport failure is fatal for the query pipeline.
type SearchEngine interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResultSet, error)
}
