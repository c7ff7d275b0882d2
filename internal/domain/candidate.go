package domain

// ChunkMetadata locates a chunk inside its source document.
type ChunkMetadata struct {
	SourceFile string `json:"source_file"`
	PageNumber int    `json:"page_number"`
	Position   int    `json:"position"`
}

// Chunk is the immutable unit of indexed content. Chunks are created at
// indexing time and never mutated on the query path.
type Chunk struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
}

// ScoredCandidate is a chunk paired with the native scores the search
// engine returned for it. LexicalScore is on the engine's own unbounded
// scale; VectorScore is cosine similarity.
type ScoredCandidate struct {
	Chunk        Chunk
	LexicalScore float64
	VectorScore  float64
}

// FusedCandidate is a ScoredCandidate after score normalization and
// weighted fusion. LexicalRank and VectorRank are the 1-based positions
// the chunk held in the lexical-only and vector-only orderings; 0 means
// the chunk was absent from that list. They are kept so the rerank
// fallback can compute RRF without a second retrieval call.
type FusedCandidate struct {
	ScoredCandidate
	FusedScore  float64
	Rank        int
	LexicalRank int
	VectorRank  int
}

// RerankedCandidate is a FusedCandidate with its final relevance score.
// RelevanceScore comes from the external reranker; when the local RRF
// fallback produced the ordering, RRFScore is set instead and
// ViaFallback is true.
type RerankedCandidate struct {
	FusedCandidate
	RelevanceScore float64
	RRFScore       float64
	ViaFallback    bool
	FinalRank      int
}

// Source is a chunk reference actually cited by the answer.
type Source struct {
	ChunkID    string `json:"chunk_id"`
	SourceFile string `json:"source_file"`
	PageNumber int    `json:"page_number"`
	Snippet    string `json:"snippet"`
}

// AnswerResult is the single value returned to callers. Degraded is
// true whenever any fallback path was used; StageFailures lists the
// stages that fell back, sorted and without duplicates.
type AnswerResult struct {
	AnswerText    string   `json:"answer_text"`
	Sources       []Source `json:"sources"`
	Degraded      bool     `json:"degraded"`
	StageFailures []string `json:"stage_failures"`
}
