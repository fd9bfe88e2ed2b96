// Package groq generates answers through Groq's OpenAI-compatible chat completions API.
package groq

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
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.4
)

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Executor    *resilience.Executor
}

type Generator struct {
	baseURL     string
	model       string
	temperature float64
	http        *httpjson.Client
}

func NewGenerator(opts Options) (*Generator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "groq generator", fmt.Errorf("api key is required"))
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.APIKey)

	return &Generator{
		baseURL:     baseURL,
		model:       model,
		temperature: opts.Temperature,
		http: httpjson.New("groq", httpjson.Options{
			Timeout:  opts.Timeout,
			Header:   header,
			Executor: opts.Executor,
		}),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	request := completionRequest{
		Model: g.model,
		Messages: []message{
			{Role: "system", Content: prompt.SystemMessage()},
			{Role: "user", Content: prompt.Question},
		},
		Temperature: g.temperature,
	}

	var response completionResponse
	if err := g.http.Do(ctx, http.MethodPost, g.baseURL+"/chat/completions", request, &response, "chat_completion"); err != nil {
		return "", httpjson.WrapProviderError(domain.ErrGeneration, "groq chat completion", err)
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrGeneration, "groq chat completion", fmt.Errorf("no choices returned"))
	}
	answer := strings.TrimSpace(response.Choices[0].Message.Content)
	if answer == "" {
		return "", domain.WrapError(domain.ErrGeneration, "groq chat completion", fmt.Errorf("empty completion"))
	}
	return answer, nil
}
