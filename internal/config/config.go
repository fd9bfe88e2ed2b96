package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
)

const (
	ProviderPinecone    = "pinecone"
	ProviderQdrant      = "qdrant"
	ProviderBolt        = "bolt"
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
	ProviderGroq        = "groq"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	DataDir          string
	LoaderExtensions []string
	FactsFile        string

	ChunkSize    int
	ChunkOverlap int

	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingAPIKey    string
	EmbeddingBaseURL   string
	EmbeddingDimension int

	OllamaURL string

	VectorDBProvider   string
	VectorDBAPIKey     string
	VectorIndexName    string
	PineconeControlURL string
	PineconeCloud      string
	PineconeRegion     string
	QdrantURL          string
	BoltPath           string

	LLMProvider    string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float64

	EmbedBatchSize  int
	UpsertBatchSize int
	RAGTopK         int

	EmbedTimeoutSeconds    int
	LLMTimeoutSeconds      int
	VectorDBTimeoutSeconds int
	QueryTimeoutSeconds    int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	RetryMaxAttempts       int
	RetryInitialBackoffMS  int
	RetryMaxBackoffMS      int
	RetryMultiplier        float64
	BreakerEnabled         bool
	BreakerMinRequests     int
	BreakerFailureRatio    float64
	BreakerOpenTimeoutSecs int
	BreakerHalfOpenCalls   int

	WorkerMetricsPort string
}

func Load() Config {
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "medbot.ingest.refresh"),

		DataDir:          mustEnv("DATA_DIR", "data/"),
		LoaderExtensions: mustEnvList("LOADER_EXTENSIONS", []string{".pdf"}),
		FactsFile:        mustEnv("FACTS_FILE", ""),

		ChunkSize:    mustEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: mustEnvInt("CHUNK_OVERLAP", 20),

		EmbeddingProvider:  strings.ToLower(mustEnv("EMBEDDING_PROVIDER", ProviderHuggingFace)),
		EmbeddingModel:     mustEnv("EMBEDDING_MODEL", ""),
		EmbeddingAPIKey:    mustEnv("EMBEDDING_API_KEY", mustEnv("HF_TOKEN", "")),
		EmbeddingBaseURL:   mustEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingDimension: mustEnvInt("EMBEDDING_DIMENSION", 384),

		OllamaURL: mustEnv("OLLAMA_URL", "http://localhost:11434"),

		VectorDBProvider:   strings.ToLower(mustEnv("VECTOR_DB_PROVIDER", ProviderPinecone)),
		VectorDBAPIKey:     mustEnv("VECTOR_DB_API_KEY", mustEnv("PINECONE_API_KEY", "")),
		VectorIndexName:    mustEnv("VECTOR_INDEX_NAME", "medical-chatbot"),
		PineconeControlURL: mustEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),
		PineconeCloud:      mustEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     mustEnv("PINECONE_REGION", "us-east-1"),
		QdrantURL:          mustEnv("QDRANT_URL", "http://localhost:6333"),
		BoltPath:           mustEnv("BOLT_PATH", "./data/medical-chatbot.db"),

		LLMProvider:    strings.ToLower(mustEnv("LLM_PROVIDER", ProviderGroq)),
		LLMAPIKey:      mustEnv("LLM_API_KEY", mustEnv("GROQ_API_KEY", "")),
		LLMBaseURL:     mustEnv("LLM_BASE_URL", ""),
		LLMModel:       mustEnv("LLM_MODEL", ""),
		LLMTemperature: mustEnvFloat("LLM_TEMPERATURE", 0.4),

		EmbedBatchSize:  mustEnvInt("EMBED_BATCH_SIZE", 32),
		UpsertBatchSize: mustEnvInt("UPSERT_BATCH_SIZE", 100),
		RAGTopK:         mustEnvInt("RAG_TOP_K", 3),

		EmbedTimeoutSeconds:    mustEnvInt("EMBED_TIMEOUT_SECONDS", 30),
		LLMTimeoutSeconds:      mustEnvInt("LLM_TIMEOUT_SECONDS", 60),
		VectorDBTimeoutSeconds: mustEnvInt("VECTOR_DB_TIMEOUT_SECONDS", 30),
		QueryTimeoutSeconds:    mustEnvInt("QUERY_TIMEOUT_SECONDS", 90),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		RetryMaxAttempts:       mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoffMS:  mustEnvInt("RETRY_INITIAL_BACKOFF_MS", 200),
		RetryMaxBackoffMS:      mustEnvInt("RETRY_MAX_BACKOFF_MS", 2000),
		RetryMultiplier:        mustEnvFloat("RETRY_MULTIPLIER", 2.0),
		BreakerEnabled:         mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:     mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:    mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutSecs: mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerHalfOpenCalls:   mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel(cfg.EmbeddingProvider)
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel(cfg.LLMProvider)
	}
	return cfg
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderOllama {
		return "all-minilm"
	}
	return "sentence-transformers/all-MiniLM-L6-v2"
}

func defaultLLMModel(provider string) string {
	if provider == ProviderOllama {
		return "llama3.1:8b"
	}
	return "llama-3.3-70b-versatile"
}

// Scope selects which parts of the pipeline a process needs.
type Scope int

const (
	ScopeIngest Scope = 1 << iota
	ScopeQuery
)

// Validate fails with domain.ErrConfiguration listing every problem, including missing keys by name.
func (c Config) Validate(scope Scope) error {
	var problems []string
	var missing []string

	switch c.EmbeddingProvider {
	case ProviderHuggingFace, ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}
	switch c.VectorDBProvider {
	case ProviderPinecone:
		if strings.TrimSpace(c.VectorDBAPIKey) == "" {
			missing = append(missing, "VECTOR_DB_API_KEY")
		}
	case ProviderQdrant, ProviderBolt:
	default:
		problems = append(problems, fmt.Sprintf("unknown VECTOR_DB_PROVIDER %q", c.VectorDBProvider))
	}
	if strings.TrimSpace(c.VectorIndexName) == "" {
		problems = append(problems, "VECTOR_INDEX_NAME is empty")
	}
	if c.EmbeddingDimension <= 0 {
		problems = append(problems, "EMBEDDING_DIMENSION must be positive")
	}

	if scope&ScopeQuery != 0 {
		switch c.LLMProvider {
		case ProviderGroq:
			if strings.TrimSpace(c.LLMAPIKey) == "" {
				missing = append(missing, "LLM_API_KEY")
			}
		case ProviderOllama:
		default:
			problems = append(problems, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLMProvider))
		}
		if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
			problems = append(problems, "LLM_TEMPERATURE must be within [0, 2]")
		}
		if c.RAGTopK <= 0 {
			problems = append(problems, "RAG_TOP_K must be positive")
		}
	}

	if scope&ScopeIngest != 0 {
		if c.ChunkSize <= 0 {
			problems = append(problems, "CHUNK_SIZE must be positive")
		}
		if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
			problems = append(problems, "CHUNK_OVERLAP must be within [0, CHUNK_SIZE)")
		}
		if c.EmbedBatchSize <= 0 || c.UpsertBatchSize <= 0 {
			problems = append(problems, "EMBED_BATCH_SIZE and UPSERT_BATCH_SIZE must be positive")
		}
		if strings.TrimSpace(c.DataDir) == "" {
			problems = append(problems, "DATA_DIR is empty")
		}
	}

	if len(missing) > 0 {
		problems = append([]string{"missing required keys: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) == 0 {
		return nil
	}
	return domain.WrapError(domain.ErrConfiguration, "validate config", fmt.Errorf("%s", strings.Join(problems, "; ")))
}

// IndexSpec is the index every backend is created with.
func (c Config) IndexSpec() domain.IndexSpec {
	return domain.IndexSpec{
		Name:      c.VectorIndexName,
		Dimension: c.EmbeddingDimension,
		Metric:    domain.MetricCosine,
	}
}

// Resilience maps the RETRY_* and BREAKER_* settings; attemptTimeout bounds each call.
func (c Config) Resilience(attemptTimeout time.Duration) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        c.RetryMaxAttempts,
		RetryInitialBackoff:     time.Duration(c.RetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:         time.Duration(c.RetryMaxBackoffMS) * time.Millisecond,
		RetryMultiplier:         c.RetryMultiplier,
		AttemptTimeout:          attemptTimeout,
		BreakerEnabled:          c.BreakerEnabled,
		BreakerMinRequests:      uint32(max(c.BreakerMinRequests, 0)),
		BreakerFailureRatio:     c.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(c.BreakerOpenTimeoutSecs) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(max(c.BreakerHalfOpenCalls, 0)),
	}
}

func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func mustEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
