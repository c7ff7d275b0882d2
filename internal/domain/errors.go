package domain

import "errors"

// Pipeline stage identifiers recorded in AnswerResult.StageFailures.
const (
	StageEmbed    = "embed"
	StageRerank   = "rerank"
	StageGenerate = "generate"
)

// ErrRetrievalUnavailable is the one non-cancellation error that
// escapes the pipeline: without the search engine there are no
// candidates and no meaningful fallback.
var ErrRetrievalUnavailable = errors.New("search engine unavailable")

// ErrEmbeddingUnavailable marks an embedding call that failed or
// returned a vector of the wrong dimension. The pipeline absorbs it by
// degrading to lexical-only retrieval.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")
