// Package huggingface computes sentence embeddings with the Hugging Face Inference
// feature-extraction pipeline.
package huggingface

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

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "sentence-transformers/all-MiniLM-L6-v2"
)

type Options struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Executor *resilience.Executor
}

type Embedder struct {
	endpoint string
	http     *httpjson.Client
}

func NewEmbedder(opts Options) *Embedder {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.Trim(strings.TrimSpace(opts.Model), "/")
	if model == "" {
		model = DefaultModel
	}
	header := http.Header{}
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		header.Set("Authorization", "Bearer "+key)
	}
	return &Embedder{
		endpoint: baseURL + "/" + model + "/pipeline/feature-extraction",
		http: httpjson.New("huggingface", httpjson.Options{
			Timeout:  opts.Timeout,
			Header:   header,
			Executor: opts.Executor,
		}),
	}
}

type featureExtractionRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := featureExtractionRequest{
		Inputs:  texts,
		Options: map[string]any{"wait_for_model": true},
	}
	var vectors [][]float32
	if err := e.http.Do(ctx, http.MethodPost, e.endpoint, request, &vectors, "feature_extraction"); err != nil {
		return nil, httpjson.WrapProviderError(domain.ErrEmbedding, "huggingface embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbedding, "huggingface embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
