package mcpadapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

type answererFake struct {
	answer *domain.Answer
	err    error
	calls  int
}

func (f *answererFake) Answer(context.Context, string) (*domain.Answer, error) {
	f.calls++
	return f.answer, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = ToolName
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestHandleAskReturnsAnswerWithSources(t *testing.T) {
	fake := &answererFake{answer: &domain.Answer{
		Text: "Dial 112 anywhere in Europe.",
		Sources: []domain.RetrievedChunk{
			{ID: "r1", Metadata: domain.Metadata{Region: "Europe"}, Score: 0.92},
			{ID: "r2", Metadata: domain.Metadata{Source: "data/Medical_book.pdf"}, Score: 0.41},
		},
	}}
	s := NewServer(fake)

	result, err := s.handleAsk(context.Background(), callRequest(map[string]any{"question": "ambulance in Europe?"}))
	if err != nil {
		t.Fatalf("handleAsk() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error")
	}
	text := resultText(t, result)
	if !strings.HasPrefix(text, "Dial 112 anywhere in Europe.") || !strings.Contains(text, "[1] Europe") || !strings.Contains(text, "[2] data/Medical_book.pdf") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestHandleAskRequiresQuestion(t *testing.T) {
	fake := &answererFake{}
	s := NewServer(fake)

	for _, args := range []map[string]any{{}, {"question": "   "}} {
		result, err := s.handleAsk(context.Background(), callRequest(args))
		if err != nil {
			t.Fatalf("handleAsk() error = %v", err)
		}
		if !result.IsError {
			t.Fatalf("expected tool error for %v", args)
		}
	}
	if fake.calls != 0 {
		t.Fatalf("pipeline must not be called without a question")
	}
}

func TestHandleAskHidesProviderDetail(t *testing.T) {
	fake := &answererFake{err: domain.WrapError(domain.ErrGeneration, "groq", errors.New("401 gsk-secret"))}
	result, err := NewServer(fake).handleAsk(context.Background(), callRequest(map[string]any{"question": "fever"}))
	if err != nil {
		t.Fatalf("handleAsk() error = %v", err)
	}
	if !result.IsError || strings.Contains(resultText(t, result), "gsk-secret") {
		t.Fatalf("expected sanitized tool error, got %+v", result)
	}
}
