package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
)

const workerGroup = "ingest-workers"

// Queue carries ingestion refresh requests from the CLI to the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("medical-chatbot"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

type refreshRequest struct {
	DataDir     string    `json:"data_dir"`
	RequestedAt time.Time `json:"requested_at"`
}

func encodeRefresh(dataDir string, at time.Time) ([]byte, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode refresh request", fmt.Errorf("data dir is empty"))
	}
	return json.Marshal(refreshRequest{DataDir: dataDir, RequestedAt: at.UTC()})
}

// decodeRefresh also accepts a bare directory path so operators can publish with the nats CLI.
func decodeRefresh(data []byte) (string, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode refresh request", fmt.Errorf("empty message"))
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	var req refreshRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode refresh request", err)
	}
	if strings.TrimSpace(req.DataDir) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode refresh request", fmt.Errorf("data_dir is empty"))
	}
	return req.DataDir, nil
}

func (q *Queue) PublishRefresh(ctx context.Context, dataDir string) error {
	payload, err := encodeRefresh(dataDir, time.Now())
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		if err := q.conn.FlushTimeout(2 * time.Second); err != nil {
			return fmt.Errorf("nats flush: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapPublishError(err)
	}
	return nil
}

// SubscribeRefresh blocks until ctx is done. Requests are delivered to one worker of the group.
func (q *Queue) SubscribeRefresh(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		dataDir, err := decodeRefresh(msg.Data)
		if err != nil {
			slog.Warn("refresh_request_rejected", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, dataDir); err != nil {
			slog.Error("refresh_handler_failed", "data_dir", dataDir, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
