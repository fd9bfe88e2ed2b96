package ports

import (
	"context"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for the retrieval-augmented query flow.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// Ingestor is the inbound contract for the offline ingestion flow.
type Ingestor interface {
	Ingest(ctx context.Context, dataDir string, progress func(domain.IngestProgress)) (*domain.IngestReport, error)
}
