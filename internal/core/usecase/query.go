package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
)

type QueryUseCase struct {
	retriever *Retriever
	generator ports.AnswerGenerator
	timeout   time.Duration
}

// NewQueryUseCase builds the query flow. A zero timeout leaves the caller's deadline in charge.
func NewQueryUseCase(
	retriever *Retriever,
	generator ports.AnswerGenerator,
	timeout time.Duration,
) *QueryUseCase {
	return &QueryUseCase{
		retriever: retriever,
		generator: generator,
		timeout:   timeout,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("question is required"))
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result, err := uc.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	answerText, err := uc.generator.Generate(ctx, AssemblePrompt(question, result))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: result.Chunks,
	}, nil
}
