package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/bootstrap"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/observability/logging"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/observability/metrics"
)

const serviceName = "medbot-worker"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, config.ScopeIngest)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	queue, err := bootstrap.NewQueue(cfg)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer queue.Close()

	ingestMetrics := metrics.NewIngestMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           ingestMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = queue.SubscribeRefresh(ctx, func(handlerCtx context.Context, dataDir string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		ingestMetrics.StartRun()
		start := time.Now()
		report, err := app.Ingestor.Ingest(runCtx, dataDir, nil)
		ingestMetrics.FinishRun(serviceName, time.Since(start), report, err)
		if err != nil {
			logger.Error("ingest_run_failed", "data_dir", dataDir, "error", err)
			return err
		}
		logger.Info("ingest_run_completed",
			"run_id", report.RunID,
			"data_dir", dataDir,
			"records", report.Records,
			"duration_ms", report.Duration.Milliseconds(),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe refresh: %w", err)
	}
	return nil
}
