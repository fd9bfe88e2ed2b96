// Package ollama talks to a local Ollama server for embeddings and chat generation.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/httpjson"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	http        *httpjson.Client
}

type Options struct {
	Temperature float64
	Timeout     time.Duration
	Executor    *resilience.Executor
}

func New(baseURL, genModel, embedModel string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    genModel,
		embedModel:  embedModel,
		temperature: opts.Temperature,
		http:        httpjson.New("ollama", httpjson.Options{Timeout: timeout, Executor: opts.Executor}),
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.http.Do(ctx, http.MethodPost, e.client.baseURL+"/api/embed", request, &response, "embed"); err != nil {
		return nil, httpjson.WrapProviderError(domain.ErrEmbedding, "ollama embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbedding, "ollama embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Embeddings)))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	request := map[string]any{
		"model": g.client.genModel,
		"messages": []chatMessage{
			{Role: "system", Content: prompt.SystemMessage()},
			{Role: "user", Content: prompt.Question},
		},
		"stream":  false,
		"options": map[string]any{"temperature": g.client.temperature},
	}

	var response struct {
		Message chatMessage `json:"message"`
	}
	if err := g.client.http.Do(ctx, http.MethodPost, g.client.baseURL+"/api/chat", request, &response, "chat"); err != nil {
		return "", httpjson.WrapProviderError(domain.ErrGeneration, "ollama chat", err)
	}
	answer := strings.TrimSpace(response.Message.Content)
	if answer == "" {
		return "", domain.WrapError(domain.ErrGeneration, "ollama chat", fmt.Errorf("empty completion"))
	}
	return answer, nil
}
