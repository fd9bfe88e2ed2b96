// Package cli implements the medbot command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/bootstrap"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/repository/postgres"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/observability/logging"
)

// RefreshPublisher sends ingestion refresh requests to the worker.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, dataDir string) error
	Close()
}

// RunLedger reads the ingestion run history.
type RunLedger interface {
	LatestRun(ctx context.Context) (*postgres.IngestRun, error)
}

// Deps are the constructors the commands use; tests replace them with fakes.
type Deps struct {
	LoadConfig   func() config.Config
	BuildApp     func(ctx context.Context, cfg config.Config, scope config.Scope) (*bootstrap.App, error)
	NewPublisher func(cfg config.Config) (RefreshPublisher, error)
	OpenLedger   func(cfg config.Config) (RunLedger, func(), error)
}

func DefaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		BuildApp:   bootstrap.New,
		NewPublisher: func(cfg config.Config) (RefreshPublisher, error) {
			return bootstrap.NewQueue(cfg)
		},
		OpenLedger: openLedger,
	}
}

func openLedger(cfg config.Config) (RunLedger, func(), error) {
	if cfg.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("run ledger is disabled: set POSTGRES_DSN")
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	return postgres.NewIngestRunRepository(db), func() { _ = db.Close() }, nil
}

type rootState struct {
	deps Deps
	cfg  config.Config
}

func NewRootCmd(deps Deps) *cobra.Command {
	state := &rootState{deps: deps}
	var logLevel string

	root := &cobra.Command{
		Use:   "medbot",
		Short: "Medical chatbot: ingest the medical reference and answer questions from it",
		Long: `medbot indexes the medical reference PDFs plus the emergency-number fact table
into a vector index and answers questions grounded in the retrieved context.

Example usage:
  medbot ingest                         # Index DATA_DIR (default data/)
  medbot ask "What causes acne?"        # Answer one question
  medbot refresh                        # Ask the worker to re-ingest
  medbot mcp                            # Serve the ask_medical MCP tool on stdio`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			state.cfg = deps.LoadConfig()
			if logLevel != "" {
				state.cfg.LogLevel = logLevel
			}
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "medbot-cli", state.cfg.LogLevel))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	root.AddCommand(
		newIngestCmd(state),
		newAskCmd(state),
		newRefreshCmd(state),
		newMCPCmd(state),
		newStatusCmd(state),
	)
	return root
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
