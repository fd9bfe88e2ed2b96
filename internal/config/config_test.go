package config

import (
	"strings"
	"testing"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VECTOR_DB_PROVIDER", "VECTOR_DB_API_KEY", "PINECONE_API_KEY",
		"LLM_PROVIDER", "LLM_API_KEY", "GROQ_API_KEY", "LLM_MODEL",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "LOADER_EXTENSIONS", "RAG_TOP_K",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := Load()
	if cfg.VectorDBProvider != ProviderPinecone || cfg.LLMProvider != ProviderGroq || cfg.EmbeddingProvider != ProviderHuggingFace {
		t.Fatalf("unexpected default providers: %s/%s/%s", cfg.VectorDBProvider, cfg.LLMProvider, cfg.EmbeddingProvider)
	}
	if cfg.VectorIndexName != "medical-chatbot" || cfg.EmbeddingDimension != 384 {
		t.Fatalf("unexpected index defaults: %s/%d", cfg.VectorIndexName, cfg.EmbeddingDimension)
	}
	if cfg.LLMModel != "llama-3.3-70b-versatile" || cfg.LLMTemperature != 0.4 {
		t.Fatalf("unexpected llm defaults: %s/%v", cfg.LLMModel, cfg.LLMTemperature)
	}
	if cfg.EmbeddingModel != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Fatalf("unexpected embedding model %q", cfg.EmbeddingModel)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 20 || cfg.RAGTopK != 3 {
		t.Fatalf("unexpected chunk/retrieval defaults: %d/%d/%d", cfg.ChunkSize, cfg.ChunkOverlap, cfg.RAGTopK)
	}
	if len(cfg.LoaderExtensions) != 1 || cfg.LoaderExtensions[0] != ".pdf" {
		t.Fatalf("unexpected extensions %v", cfg.LoaderExtensions)
	}
	if cfg.EmbedBatchSize != 32 || cfg.UpsertBatchSize != 100 {
		t.Fatalf("unexpected batch sizes %d/%d", cfg.EmbedBatchSize, cfg.UpsertBatchSize)
	}
}

func TestLoadAcceptsLegacyKeyNames(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PINECONE_API_KEY", "pc-legacy")
	t.Setenv("GROQ_API_KEY", "gsk-legacy")

	cfg := Load()
	if cfg.VectorDBAPIKey != "pc-legacy" || cfg.LLMAPIKey != "gsk-legacy" {
		t.Fatalf("legacy keys not picked up: %q %q", cfg.VectorDBAPIKey, cfg.LLMAPIKey)
	}

	t.Setenv("VECTOR_DB_API_KEY", "pc-new")
	if got := Load().VectorDBAPIKey; got != "pc-new" {
		t.Fatalf("expected new key name to win, got %q", got)
	}
}

func TestLoadProviderSpecificModelDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("LOADER_EXTENSIONS", ".pdf, .txt ,,.md")

	cfg := Load()
	if cfg.LLMProvider != ProviderOllama || cfg.LLMModel != "llama3.1:8b" || cfg.EmbeddingModel != "all-minilm" {
		t.Fatalf("unexpected ollama defaults: %+v", cfg)
	}
	if strings.Join(cfg.LoaderExtensions, "|") != ".pdf|.txt|.md" {
		t.Fatalf("unexpected extensions %v", cfg.LoaderExtensions)
	}
}

func TestValidateNamesMissingKeys(t *testing.T) {
	clearProviderEnv(t)

	err := Load().Validate(ScopeIngest | ScopeQuery)
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "VECTOR_DB_API_KEY") || !strings.Contains(err.Error(), "LLM_API_KEY") {
		t.Fatalf("expected both missing keys to be named, got %v", err)
	}
}

func TestValidateScopes(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("VECTOR_DB_API_KEY", "pc")

	cfg := Load()
	if err := cfg.Validate(ScopeIngest); err != nil {
		t.Fatalf("ingest does not need an llm key, got %v", err)
	}
	if err := cfg.Validate(ScopeQuery); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("query needs an llm key, got %v", err)
	}

	cfg.LLMProvider = ProviderOllama
	cfg.VectorDBProvider = ProviderBolt
	cfg.VectorDBAPIKey = ""
	if err := cfg.Validate(ScopeIngest | ScopeQuery); err != nil {
		t.Fatalf("local providers need no keys, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	clearProviderEnv(t)
	cfg := Load()
	cfg.VectorDBProvider = ProviderBolt
	cfg.LLMProvider = ProviderOllama

	cases := map[string]func(*Config){
		"unknown vector provider": func(c *Config) { c.VectorDBProvider = "faiss" },
		"overlap too large":       func(c *Config) { c.ChunkOverlap = c.ChunkSize },
		"temperature":             func(c *Config) { c.LLMTemperature = 3 },
		"top k":                   func(c *Config) { c.RAGTopK = 0 },
		"dimension":               func(c *Config) { c.EmbeddingDimension = 0 },
	}
	for name, mutate := range cases {
		c := cfg
		mutate(&c)
		if err := c.Validate(ScopeIngest | ScopeQuery); !domain.IsKind(err, domain.ErrConfiguration) {
			t.Fatalf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestResilienceMapping(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("BREAKER_ENABLED", "false")

	rc := Load().Resilience(30 * time.Second)
	if rc.RetryMaxAttempts != 5 || rc.BreakerEnabled || rc.AttemptTimeout != 30*time.Second {
		t.Fatalf("unexpected resilience config: %+v", rc)
	}
	if rc.RetryInitialBackoff != 200*time.Millisecond || rc.BreakerOpenTimeout != 30*time.Second {
		t.Fatalf("unexpected durations: %+v", rc)
	}
}
