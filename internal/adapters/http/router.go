package httpadapter

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/observability/metrics"
)

const (
	serviceName = "medbot-api"

	EmptyMessageReply  = "Please enter a message."
	UnavailableReply   = "I'm unable to answer right now. Please try again later."
	TooLongReply       = "Your message is too long. Please shorten it and try again."
	MalformedFormReply = "Your message could not be read. Please try again."

	maxBodyBytes = 64 << 10
)

//go:embed static/chat.html
var staticFS embed.FS

type Router struct {
	cfg      config.Config
	answerer ports.QuestionAnswerer
	metrics  *metrics.HTTPServerMetrics
}

// NewRouter builds the request surface. m may be nil, in which case /metrics is not served.
func NewRouter(cfg config.Config, answerer ports.QuestionAnswerer, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		answerer: answerer,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	chat := http.NewServeMux()
	chat.HandleFunc("/", rt.chatPage)
	chat.HandleFunc("/get", rt.chatMessage)
	chat.HandleFunc("/v1/rag/query", rt.queryRAG)

	var onRateLimited, onOverloaded func()
	if rt.metrics != nil {
		onRateLimited = func() { rt.metrics.RecordRejected(serviceName, "rate_limited") }
		onOverloaded = func() { rt.metrics.RecordRejected(serviceName, "overloaded") }
	}
	guarded := backpressureMiddleware(chat, rt.cfg.APIMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond, onOverloaded)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onRateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(recoverMiddleware(handler)))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chatPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	page, err := staticFS.ReadFile("static/chat.html")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chat page unavailable"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// chatMessage answers the chat page: form or query field msg in, plain text out.
func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, TooLongReply)
			return
		}
		writeText(w, http.StatusBadRequest, MalformedFormReply)
		return
	}

	msg := strings.TrimSpace(r.FormValue("msg"))
	if msg == "" {
		writeText(w, http.StatusOK, EmptyMessageReply)
		return
	}

	requestID := requestIDFromContext(r.Context())
	slog.Info("chat_message_received", "request_id", requestID, "msg", msg)

	start := time.Now()
	answer, err := rt.answerer.Answer(r.Context(), msg)
	if err != nil {
		rt.recordFailure("/get", start)
		slog.Error("chat_message_failed", "request_id", requestID, "error", err)
		writeText(w, http.StatusServiceUnavailable, UnavailableReply)
		return
	}
	rt.recordObservation("/get", len(answer.Sources), start)

	slog.Info("chat_message_answered", "request_id", requestID, "answer", answer.Text, "sources", len(answer.Sources))
	writeText(w, http.StatusOK, answer.Text)
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		rt.recordFailure("/v1/rag/query", start)
		status := mapErrorToHTTPStatus(err)
		slog.Error("rag_query_failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
		writeJSON(w, status, map[string]string{"error": publicErrorMessage(status)})
		return
	}
	rt.recordObservation("/v1/rag/query", len(answer.Sources), start)

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) recordObservation(endpoint string, sources int, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, endpoint, sources, time.Since(start))
	}
}

func (rt *Router) recordFailure(endpoint string, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordRAGFailure(serviceName, endpoint, time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
