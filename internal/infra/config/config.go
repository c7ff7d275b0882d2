package config

import (
	"os"
	"strconv"
	"strings"
)

// Values for SearchBackend selecting which engine serves retrieval.
const (
	BackendElastic      = "elastic"
	BackendHybridSearch = "hybridsearch"
)

type Config struct {
	Env  string
	Port string

	// retrieval backend
	SearchBackend string

	// elastic backend
	ElasticURL   string
	ElasticIndex string

	// hybridsearch backend
	MeilisearchHost   string
	MeilisearchAPIKey string
	MeilisearchIndex  string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string

	// model services
	EmbeddingURL      string
	EmbeddingModel    string
	EmbeddingCacheLen int
	RerankerURL       string
	RerankerModel     string
	GenerationURL     string
	GenerationModel   string
	GenerationAPIKey  string
	GenerationRPS     float64

	// engine tuning
	LexicalWeight float64
	VectorWeight  float64
	EmbeddingDim  int
	MinScore      float64
	TopNRetrieve  int
	TopKRerank    int
	ContextBudget int
	MaxTokens     int

	// timeouts in seconds
	EmbedTimeout    int
	SearchTimeout   int
	RerankTimeout   int
	GenerateTimeout int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9010"),

		SearchBackend: getEnv("SEARCH_BACKEND", BackendElastic),

		ElasticURL:   getEnv("ELASTICSEARCH_URL", "http://elasticsearch:9200"),
		ElasticIndex: getEnv("ELASTICSEARCH_INDEX", "chunks"),

		MeilisearchHost:   getEnv("MEILISEARCH_HOST", "http://meilisearch:7700"),
		MeilisearchAPIKey: getSecret("MEILISEARCH_API_KEY", "MEILISEARCH_API_KEY_FILE", ""),
		MeilisearchIndex:  getEnv("MEILISEARCH_INDEX", "chunks"),
		DBHost:            getEnv("DB_HOST", "answer-db"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "answer_user"),
		DBPassword:        getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "answer_password"),
		DBName:            getEnv("DB_NAME", "answer_db"),

		EmbeddingURL:      getEnv("EMBEDDING_URL", "http://embedding:11434"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "bge-m3"),
		EmbeddingCacheLen: getEnvInt("EMBEDDING_CACHE_LEN", 1024),
		RerankerURL:       getEnv("RERANKER_URL", ""),
		RerankerModel:     getEnv("RERANKER_MODEL", "bge-reranker-v2-m3"),
		GenerationURL:     getEnv("GENERATION_URL", ""),
		GenerationModel:   getEnv("GENERATION_MODEL", "gpt-4o-mini"),
		GenerationAPIKey:  getSecret("GENERATION_API_KEY", "GENERATION_API_KEY_FILE", ""),
		GenerationRPS:     getEnvFloat("GENERATION_RPS", 5),

		LexicalWeight: getEnvFloat("LEXICAL_WEIGHT", 0.3),
		VectorWeight:  getEnvFloat("VECTOR_WEIGHT", 0.7),
		EmbeddingDim:  getEnvInt("EMBEDDING_DIM", 1024),
		MinScore:      getEnvFloat("MIN_SCORE", 0.1),
		TopNRetrieve:  getEnvInt("TOP_N_RETRIEVE", 10),
		TopKRerank:    getEnvInt("TOP_K_RERANK", 10),
		ContextBudget: getEnvInt("CONTEXT_BUDGET", 2000),
		MaxTokens:     getEnvInt("GENERATION_MAX_TOKENS", 768),

		EmbedTimeout:    getEnvInt("EMBED_TIMEOUT_SECONDS", 10),
		SearchTimeout:   getEnvInt("SEARCH_TIMEOUT_SECONDS", 10),
		RerankTimeout:   getEnvInt("RERANK_TIMEOUT_SECONDS", 30),
		GenerateTimeout: getEnvInt("GENERATE_TIMEOUT_SECONDS", 60),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
