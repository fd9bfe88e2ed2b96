package httpadapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

type panickingAnswerer struct{}

func (panickingAnswerer) Answer(context.Context, string) (*domain.Answer, error) {
	panic("nil vector")
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	handler := newTestHandler(config.Config{}, &answererFake{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got == "" || len(got) > maxRequestIDLen {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func TestPanicIsRecoveredAsUnavailable(t *testing.T) {
	handler := NewRouter(config.Config{}, panickingAnswerer{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/get?msg=acne", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	if res.Body.String() != UnavailableReply {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}
