package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"

	"answer-engine/internal/adapter/elastic"
	"answer-engine/internal/adapter/hybridsearch"
	"answer-engine/internal/adapter/modelapi"
	"answer-engine/internal/domain"
	"answer-engine/internal/infra"
	"answer-engine/internal/infra/config"
	"answer-engine/internal/infra/httpclient"
	"answer-engine/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	AnswerUsecase usecase.AnswerUsecase
	SearchEngine  domain.SearchEngine

	// Pool is non-nil only for the hybridsearch backend; readiness checks
	// ping it when present.
	Pool *pgxpool.Pool
}

// Close releases held resources.
func (c *ApplicationComponents) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// NewApplicationComponents wires all dependencies from config.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	engineCfg := usecase.DefaultEngineConfig()
	engineCfg.LexicalWeight = cfg.LexicalWeight
	engineCfg.VectorWeight = cfg.VectorWeight
	engineCfg.EmbeddingDim = cfg.EmbeddingDim
	engineCfg.MinScore = cfg.MinScore
	engineCfg.TopNRetrieve = cfg.TopNRetrieve
	engineCfg.TopKRerank = cfg.TopKRerank
	engineCfg.ContextBudget = cfg.ContextBudget
	engineCfg.MaxTokens = cfg.MaxTokens
	engineCfg.EmbedTimeout = time.Duration(cfg.EmbedTimeout) * time.Second
	engineCfg.SearchTimeout = time.Duration(cfg.SearchTimeout) * time.Second
	engineCfg.RerankTimeout = time.Duration(cfg.RerankTimeout) * time.Second
	engineCfg.GenerateTimeout = time.Duration(cfg.GenerateTimeout) * time.Second
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(engineCfg.EmbedTimeout)
	rerankHTTP := httpclient.NewPooledClient(engineCfg.RerankTimeout)
	generateHTTP := httpclient.NewPooledClient(engineCfg.GenerateTimeout)

	// Encoder with query-level LRU cache
	embedder := modelapi.NewEmbedderClient(cfg.EmbeddingURL, cfg.EmbeddingModel, engineCfg.EmbedTimeout, log, embedderHTTP)
	encoder, err := modelapi.NewCachedEncoder(embedder, cfg.EmbeddingCacheLen, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	components := &ApplicationComponents{}

	// Search engine backend
	switch cfg.SearchBackend {
	case config.BackendElastic:
		searchHTTP := httpclient.NewPooledClient(engineCfg.SearchTimeout)
		components.SearchEngine = elastic.NewClient(
			cfg.ElasticURL, cfg.ElasticIndex, cfg.MinScore,
			engineCfg.SearchTimeout, log, searchHTTP,
		)
	case config.BackendHybridSearch:
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		pool, err := infra.NewPostgresDB(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		components.Pool = pool

		msClient := meilisearch.New(cfg.MeilisearchHost, meilisearch.WithAPIKey(cfg.MeilisearchAPIKey))
		components.SearchEngine = hybridsearch.NewEngine(
			hybridsearch.NewMeiliLexical(msClient, cfg.MeilisearchIndex),
			hybridsearch.NewPgVectorStore(pool),
			log,
		)
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.SearchBackend)
	}

	// Reranker and generator are optional; when unconfigured the engine
	// falls back to RRF ordering and extractive answers permanently.
	var reranker domain.Reranker
	if cfg.RerankerURL != "" {
		reranker = modelapi.NewRerankerClient(cfg.RerankerURL, cfg.RerankerModel, engineCfg.RerankTimeout, log, rerankHTTP)
		log.Info("reranker_enabled",
			slog.String("url", cfg.RerankerURL),
			slog.String("model", cfg.RerankerModel))
	}

	var generator domain.LLMClient
	if cfg.GenerationURL != "" {
		generator = modelapi.NewGeneratorClient(
			cfg.GenerationURL, cfg.GenerationModel, cfg.GenerationAPIKey,
			cfg.GenerationRPS, engineCfg.GenerateTimeout, log, generateHTTP,
		)
		log.Info("generation_enabled",
			slog.String("url", cfg.GenerationURL),
			slog.String("model", cfg.GenerationModel))
	}

	answerUsecase, err := usecase.NewAnswerUsecase(
		encoder,
		components.SearchEngine,
		reranker,
		generator,
		usecase.NewGroundedPromptBuilder(),
		engineCfg,
		log,
	)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to create answer usecase: %w", err)
	}
	components.AnswerUsecase = answerUsecase

	return components, nil
}
