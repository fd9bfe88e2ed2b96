package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/usecase"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/chunking"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/embedding/huggingface"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/facts"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/llm/groq"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/llm/ollama"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/loader"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/queue/nats"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/repository/postgres"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector/bolt"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector/pinecone"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector/qdrant"
)

// App holds the use cases a process needs. Fields outside the requested scope are nil.
type App struct {
	Config config.Config

	Ingestor ports.Ingestor
	Answerer ports.QuestionAnswerer
	Runs     *postgres.IngestRunRepository

	closers []func()
}

func New(ctx context.Context, cfg config.Config, scope config.Scope) (*App, error) {
	if err := cfg.Validate(scope); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	embedder := newEmbedder(cfg)
	index, err := app.newVectorIndex(cfg)
	if err != nil {
		return nil, err
	}

	if scope&config.ScopeIngest != 0 {
		if err := app.wireIngest(ctx, cfg, embedder, index); err != nil {
			return nil, err
		}
	}

	if scope&config.ScopeQuery != 0 {
		generator, err := newGenerator(cfg)
		if err != nil {
			return nil, err
		}
		retriever := usecase.NewRetriever(embedder, index, cfg.RAGTopK)
		app.Answerer = usecase.NewQueryUseCase(retriever, generator, config.Seconds(cfg.QueryTimeoutSeconds))
	}

	ok = true
	return app, nil
}

func (a *App) wireIngest(ctx context.Context, cfg config.Config, embedder ports.Embedder, index ports.VectorIndex) error {
	docLoader, err := loader.New(cfg.LoaderExtensions)
	if err != nil {
		return err
	}

	factSet, err := facts.Load(cfg.FactsFile)
	if err != nil {
		return err
	}

	var runs ports.IngestRunStore
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })

		repo := postgres.NewIngestRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		a.Runs = repo
		runs = repo
	}

	a.Ingestor = usecase.NewIngestUseCase(
		docLoader,
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		factSet,
		embedder,
		index,
		runs,
		usecase.IngestOptions{
			Index:          cfg.IndexSpec(),
			EmbedBatchSize: cfg.EmbedBatchSize,
		},
	)
	return nil
}

func newEmbedder(cfg config.Config) ports.Embedder {
	timeout := config.Seconds(cfg.EmbedTimeoutSeconds)
	executor := resilience.NewExecutor(cfg.Resilience(timeout))

	if cfg.EmbeddingProvider == config.ProviderOllama {
		client := ollama.New(cfg.OllamaURL, "", cfg.EmbeddingModel, ollama.Options{Timeout: timeout, Executor: executor})
		return ollama.NewEmbedder(client)
	}
	return huggingface.NewEmbedder(huggingface.Options{
		BaseURL:  cfg.EmbeddingBaseURL,
		APIKey:   cfg.EmbeddingAPIKey,
		Model:    cfg.EmbeddingModel,
		Timeout:  timeout,
		Executor: executor,
	})
}

func newGenerator(cfg config.Config) (ports.AnswerGenerator, error) {
	timeout := config.Seconds(cfg.LLMTimeoutSeconds)
	executor := resilience.NewExecutor(cfg.Resilience(timeout))

	if cfg.LLMProvider == config.ProviderOllama {
		client := ollama.New(cfg.OllamaURL, cfg.LLMModel, "", ollama.Options{
			Temperature: cfg.LLMTemperature,
			Timeout:     timeout,
			Executor:    executor,
		})
		return ollama.NewGenerator(client), nil
	}
	return groq.NewGenerator(groq.Options{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     timeout,
		Executor:    executor,
	})
}

func (a *App) newVectorIndex(cfg config.Config) (ports.VectorIndex, error) {
	timeout := config.Seconds(cfg.VectorDBTimeoutSeconds)
	executor := resilience.NewExecutor(cfg.Resilience(timeout))

	switch cfg.VectorDBProvider {
	case config.ProviderBolt:
		idx, err := bolt.Open(cfg.BoltPath, cfg.EmbeddingDimension)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = idx.Close() })
		return idx, nil
	case config.ProviderQdrant:
		return qdrant.New(cfg.QdrantURL, cfg.VectorIndexName, cfg.EmbeddingDimension, qdrant.Options{
			APIKey:          cfg.VectorDBAPIKey,
			UpsertBatchSize: cfg.UpsertBatchSize,
			Timeout:         timeout,
			Executor:        executor,
		}), nil
	default:
		return pinecone.New(cfg.VectorDBAPIKey, cfg.VectorIndexName, cfg.EmbeddingDimension, pinecone.Options{
			ControlURL:      cfg.PineconeControlURL,
			Cloud:           cfg.PineconeCloud,
			Region:          cfg.PineconeRegion,
			UpsertBatchSize: cfg.UpsertBatchSize,
			Timeout:         timeout,
			Executor:        executor,
		})
	}
}

// NewQueue connects the refresh queue used by the CLI and the worker.
func NewQueue(cfg config.Config) (*nats.Queue, error) {
	executor := resilience.NewExecutor(cfg.Resilience(0))
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
