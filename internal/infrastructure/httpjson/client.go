// Package httpjson is the JSON-over-HTTP transport shared by the hosted provider clients.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
)

const maxErrorBody = 2048

type HTTPStatusError struct {
	Provider   string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "provider status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s status: %s", e.Provider, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s status: %s: %s", e.Provider, e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// IsStatus reports whether err carries an HTTP response with the given status code.
func IsStatus(err error, code int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

type Client struct {
	provider   string
	httpClient *http.Client
	header     http.Header
	executor   *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Header   http.Header
	Executor *resilience.Executor
}

func New(provider string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		header:     header,
		executor:   opts.Executor,
	}
}

func (c *Client) Provider() string {
	return c.provider
}

// Do sends payload (nil for no body) and decodes the response into out (nil to discard).
// Calls go through the resilience executor when one is configured.
func (c *Client) Do(ctx context.Context, method, url string, payload, out any, operation string) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
	}

	call := func(callCtx context.Context) error {
		return c.roundTrip(callCtx, method, url, body, out, operation)
	}
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, c.provider+"."+operation, call, Classify)
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", c.provider, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPStatusError{
			Provider:   c.provider,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// Classify marks network failures, per-attempt timeouts and 408/429/5xx as retryable.
// Other 4xx responses are permanent and do not count against the breaker.
func Classify(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if resilience.IsAttemptTimeout(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if IsRetryableStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// WrapProviderError tags err with kind (nil for none), and additionally with
// domain.ErrTemporary when it is transient.
func WrapProviderError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	var wrapped error
	if kind != nil {
		wrapped = domain.WrapError(kind, operation, err)
	} else {
		wrapped = fmt.Errorf("%s: %w", operation, err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return wrapped
	}
	if Classify(err).Retryable {
		return fmt.Errorf("%w: %w", domain.ErrTemporary, wrapped)
	}
	return wrapped
}
