package usecase

import (
	"context"
	"fmt"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
)

const DefaultTopK = 3

// Retriever fixes the result count for similarity search over the vector index.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	topK     int
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

func (r *Retriever) TopK() int {
	return r.topK
}

func (r *Retriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.index.Query(ctx, queryVector, r.topK)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query vector index: %w", err)
	}
	if len(chunks) > r.topK {
		chunks = chunks[:r.topK]
	}
	return domain.RetrievalResult{Chunks: chunks}, nil
}
