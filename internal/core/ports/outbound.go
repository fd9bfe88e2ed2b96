package ports

import (
	"context"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// DocumentLoader enumerates and reads source files.
type DocumentLoader interface {
	Files(root string) ([]string, error)
	LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error)
}

// Chunker splits documents into bounded, overlapping chunks.
type Chunker interface {
	SplitDocuments(docs []domain.Document) []domain.Document
}

// FactSource provides the hand-authored fact records merged into every ingestion.
type FactSource interface {
	Facts() ([]domain.RawDocument, error)
}

// Embedder builds vectors for chunks and query text with a single model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex persists records and performs nearest-neighbour search.
type VectorIndex interface {
	CreateIfAbsent(ctx context.Context, spec domain.IndexSpec) error
	Upsert(ctx context.Context, records []domain.IndexRecord) error
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)
}

// AnswerGenerator sends an assembled prompt to a language model.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
}

// IngestRunStore records ingestion runs.
type IngestRunStore interface {
	StartRun(ctx context.Context, runID, dataDir string) error
	FinishRun(ctx context.Context, report domain.IngestReport, runErr error) error
}

// RefreshQueue publishes and consumes ingestion refresh requests.
type RefreshQueue interface {
	PublishRefresh(ctx context.Context, dataDir string) error
	SubscribeRefresh(ctx context.Context, handler func(context.Context, string) error) error
}
