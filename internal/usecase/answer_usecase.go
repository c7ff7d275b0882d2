package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"answer-engine/internal/domain"
	"answer-engine/internal/usecase/retrieval"

	"github.com/google/uuid"
)

// Options tunes a single answer request. TopNRetrieve may legitimately
// be zero, meaning no retrieval at all; negative values and zeroes on
// the other fields fall back to the engine defaults.
type Options struct {
	TopNRetrieve  int
	TopKRerank    int
	ContextBudget int
	Filters       map[string]string
}

// AnswerUsecase is the single operation the engine exposes: a query in,
// a populated AnswerResult out. The only errors that escape are a fatal
// retrieval failure and caller cancellation; every other failure is
// absorbed into a degraded result.
type AnswerUsecase interface {
	Answer(ctx context.Context, query string, opts Options) (*domain.AnswerResult, error)
}

type answerUsecase struct {
	encoder       domain.VectorEncoder
	engine        domain.SearchEngine
	reranker      domain.Reranker
	generator     domain.LLMClient
	promptBuilder PromptBuilder
	cfg           EngineConfig
	logger        *slog.Logger
}

// NewAnswerUsecase wires the pipeline stages together. Reranker and
// generator may be nil; their stages then permanently run on the local
// fallback and every result is degraded.
func NewAnswerUsecase(
	encoder domain.VectorEncoder,
	engine domain.SearchEngine,
	reranker domain.Reranker,
	generator domain.LLMClient,
	promptBuilder PromptBuilder,
	cfg EngineConfig,
	logger *slog.Logger,
) (AnswerUsecase, error) {
	if encoder == nil {
		return nil, fmt.Errorf("vector encoder is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if promptBuilder == nil {
		promptBuilder = NewGroundedPromptBuilder()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &answerUsecase{
		encoder:       encoder,
		engine:        engine,
		reranker:      reranker,
		generator:     generator,
		promptBuilder: promptBuilder,
		cfg:           cfg,
		logger:        logger,
	}, nil
}

func (u *answerUsecase) Answer(ctx context.Context, query string, opts Options) (*domain.AnswerResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	opts = u.applyDefaults(opts)

	answerID := uuid.NewString()
	log := u.logger.With(slog.String("answer_id", answerID))
	start := time.Now()

	failures := map[string]bool{}

	// A zero retrieval budget short-circuits the whole pipeline:
	// nothing downstream has input, so nothing downstream runs.
	if opts.TopNRetrieve == 0 {
		return noContentResult(failures), nil
	}

	// Stage 1: embed the query. A failed or malformed embedding
	// degrades retrieval to lexical-only instead of aborting.
	vector, embedErr := u.embedQuery(ctx, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if embedErr != nil {
		failures[domain.StageEmbed] = true
		log.Warn("embedding_failed_using_lexical_only",
			slog.String("error", embedErr.Error()))
	}

	// Stage 2: hybrid retrieval. Unreachable engine is fatal.
	fused, err := u.retrieve(ctx, query, vector, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}
	log.Info("hybrid_fusion_completed",
		slog.Int("candidate_count", len(fused)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	if len(fused) == 0 {
		return noContentResult(failures), nil
	}

	// Stage 3: rerank, falling back to local RRF.
	ranked, rerankFellBack := u.rerank(ctx, query, fused, opts.TopKRerank, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rerankFellBack {
		failures[domain.StageRerank] = true
	}

	// Stage 4: generate, falling back to the extractive answer.
	result := u.generate(ctx, query, ranked, opts.ContextBudget, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.generateFellBack {
		failures[domain.StageGenerate] = true
	}

	out := degradedResult(result.answerText, result.sources, failures)
	log.Info("answer_completed",
		slog.Bool("degraded", out.Degraded),
		slog.Any("stage_failures", out.StageFailures),
		slog.Int("source_count", len(out.Sources)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return out, nil
}

func (u *answerUsecase) applyDefaults(opts Options) Options {
	if opts.TopNRetrieve < 0 {
		opts.TopNRetrieve = u.cfg.TopNRetrieve
	}
	if opts.TopKRerank <= 0 {
		opts.TopKRerank = u.cfg.TopKRerank
	}
	if opts.ContextBudget <= 0 {
		opts.ContextBudget = u.cfg.ContextBudget
	}
	return opts
}

// embedQuery runs the encoder as a one-element batch under the stage
// policy and validates the dimension. On any failure it returns the
// zero vector of length D, which downgrades the vector sub-search.
func (u *answerUsecase) embedQuery(ctx context.Context, query string) ([]float32, error) {
	zero := make([]float32, u.cfg.EmbeddingDim)

	var vectors [][]float32
	err := u.callWithRetry(ctx, u.cfg.EmbedTimeout, func(cctx context.Context) error {
		var encodeErr error
		vectors, encodeErr = u.encoder.Encode(cctx, []string{query})
		return encodeErr
	})
	if err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != 1 || len(vectors[0]) != u.cfg.EmbeddingDim {
		got := 0
		if len(vectors) == 1 {
			got = len(vectors[0])
		}
		return zero, fmt.Errorf("%w: expected dimension %d, got %d", domain.ErrEmbeddingUnavailable, u.cfg.EmbeddingDim, got)
	}
	return vectors[0], nil
}

func (u *answerUsecase) retrieve(ctx context.Context, query string, vector []float32, opts Options) ([]domain.FusedCandidate, error) {
	if isZeroVector(vector) {
		// Lexical-only: the engine skips the vector mode entirely.
		vector = nil
	}

	var resultSet *domain.SearchResultSet
	err := u.callWithRetry(ctx, u.cfg.SearchTimeout, func(cctx context.Context) error {
		var searchErr error
		resultSet, searchErr = u.engine.Search(cctx, domain.SearchQuery{
			Text:    query,
			Vector:  vector,
			Limit:   opts.TopNRetrieve,
			Filters: opts.Filters,
		})
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return retrieval.Fuse(resultSet.Lexical, resultSet.Vector, u.cfg.fusion(), opts.TopNRetrieve), nil
}

// rerank refines the fused ordering via the external relevance service,
// computing RRF locally when the service is unconfigured, unreachable,
// or misaligned. The bool reports whether the fallback was used.
func (u *answerUsecase) rerank(ctx context.Context, query string, fused []domain.FusedCandidate, topK int, log *slog.Logger) ([]domain.RerankedCandidate, bool) {
	if u.reranker == nil {
		return retrieval.RRFOrder(fused, u.cfg.RRFK, topK), true
	}

	texts := make([]string, len(fused))
	for i, fc := range fused {
		texts[i] = fc.Chunk.Text
	}

	var scores []domain.RerankScore
	err := u.callWithRetry(ctx, u.cfg.RerankTimeout, func(cctx context.Context) error {
		var rerankErr error
		scores, rerankErr = u.reranker.Rerank(cctx, query, texts)
		return rerankErr
	})
	if err == nil {
		ranked, orderErr := retrieval.OrderByRelevance(fused, scores, topK)
		if orderErr == nil {
			return ranked, false
		}
		err = orderErr
	}

	log.Warn("reranking_failed_using_rrf",
		slog.String("error", err.Error()),
		slog.String("model", u.reranker.ModelName()))
	return retrieval.RRFOrder(fused, u.cfg.RRFK, topK), true
}

type generationOutcome struct {
	answerText       string
	sources          []domain.Source
	generateFellBack bool
}

func (u *answerUsecase) generate(ctx context.Context, query string, ranked []domain.RerankedCandidate, budget int, log *slog.Logger) generationOutcome {
	window := buildContextWindow(ranked, budget)
	if len(window) == 0 {
		return generationOutcome{answerText: noRelevantInfoMessage, generateFellBack: true}
	}

	extractive := func(reason string) generationOutcome {
		log.Warn("generation_failed_using_extractive_answer", slog.String("reason", reason))
		text, sources := buildExtractiveAnswer(window)
		return generationOutcome{answerText: text, sources: sources, generateFellBack: true}
	}

	if u.generator == nil {
		return extractive("generation service not configured")
	}

	system, user, err := u.promptBuilder.Build(query, renderContext(window))
	if err != nil {
		return extractive(fmt.Sprintf("prompt build failed: %v", err))
	}

	var resp *domain.LLMResponse
	err = u.callWithRetry(ctx, u.cfg.GenerateTimeout, func(cctx context.Context) error {
		var genErr error
		resp, genErr = u.generator.Generate(cctx, domain.GenerationRequest{
			SystemInstructions: system,
			Query:              query,
			Context:            user,
			MaxTokens:          u.cfg.MaxTokens,
		})
		return genErr
	})
	if err != nil {
		return extractive(err.Error())
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return extractive("empty generation response")
	}

	sources := parseCitations(resp.Text, window)
	return generationOutcome{
		answerText: stripCitationMarkers(resp.Text),
		sources:    sources,
	}
}

// callWithRetry bounds one external call with the stage timeout and
// permits a single retry after a short backoff. A timeout consumes the
// whole budget, so it is never retried; it surfaces like any other
// transport failure and the stage falls back.
func (u *answerUsecase) callWithRetry(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(cctx)
	if err == nil {
		return nil
	}
	if cctx.Err() != nil {
		return err
	}

	select {
	case <-time.After(u.cfg.RetryBackoff):
	case <-cctx.Done():
		return err
	}
	return fn(cctx)
}

// noContentResult is the fallback for an empty candidate set: the
// primary answer path never ran, so the result counts as degraded even
// when no stage recorded a failure.
func noContentResult(failures map[string]bool) *domain.AnswerResult {
	out := degradedResult(noRelevantInfoMessage, nil, failures)
	out.Degraded = true
	return out
}

func degradedResult(answerText string, sources []domain.Source, failures map[string]bool) *domain.AnswerResult {
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return &domain.AnswerResult{
		AnswerText:    answerText,
		Sources:       sources,
		Degraded:      len(failures) > 0,
		StageFailures: names,
	}
}

func isZeroVector(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
