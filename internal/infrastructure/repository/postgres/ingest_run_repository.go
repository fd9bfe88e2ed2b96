package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// IngestRunRepository is the ledger of ingestion runs.
type IngestRunRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewIngestRunRepository(db *sql.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db, now: time.Now}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *IngestRunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id TEXT PRIMARY KEY,
	data_dir TEXT NOT NULL,
	status TEXT NOT NULL,
	files INTEGER NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	chunks INTEGER NOT NULL DEFAULT 0,
	facts INTEGER NOT NULL DEFAULT 0,
	records INTEGER NOT NULL DEFAULT 0,
	batches INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *IngestRunRepository) StartRun(ctx context.Context, runID, dataDir string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ingest_runs (id, data_dir, status, started_at)
VALUES ($1, $2, $3, $4)
`, runID, dataDir, string(domain.IngestRunning), r.now().UTC())
	if err != nil {
		return fmt.Errorf("start ingest run: %w", err)
	}
	return nil
}

func (r *IngestRunRepository) FinishRun(ctx context.Context, report domain.IngestReport, runErr error) error {
	status := domain.IngestSucceeded
	var errMsg sql.NullString
	if runErr != nil {
		status = domain.IngestFailed
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE ingest_runs
SET status = $2, files = $3, pages = $4, chunks = $5, facts = $6, records = $7, batches = $8,
	duration_ms = $9, error_message = $10, finished_at = $11
WHERE id = $1
`, report.RunID, string(status), report.Files, report.Pages, report.Chunks, report.Facts,
		report.Records, report.Batches, report.Duration.Milliseconds(), errMsg, r.now().UTC())
	if err != nil {
		return fmt.Errorf("finish ingest run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish ingest run rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "finish ingest run", fmt.Errorf("run %q", report.RunID))
	}
	return nil
}

// IngestRun is one row of the ledger.
type IngestRun struct {
	Report     domain.IngestReport
	Status     domain.IngestRunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// LatestRun returns the most recently started run.
func (r *IngestRunRepository) LatestRun(ctx context.Context) (*IngestRun, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, data_dir, status, files, pages, chunks, facts, records, batches, duration_ms, error_message, started_at, finished_at
FROM ingest_runs
ORDER BY started_at DESC
LIMIT 1
`)

	var (
		run        IngestRun
		status     string
		durationMs int64
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)
	err := row.Scan(&run.Report.RunID, &run.Report.DataDir, &status, &run.Report.Files, &run.Report.Pages,
		&run.Report.Chunks, &run.Report.Facts, &run.Report.Records, &run.Report.Batches, &durationMs,
		&errMsg, &run.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrNotFound, "latest ingest run", err)
	}
	if err != nil {
		return nil, fmt.Errorf("latest ingest run: %w", err)
	}

	run.Status = domain.IngestRunStatus(status)
	run.Report.Duration = time.Duration(durationMs) * time.Millisecond
	run.Error = errMsg.String
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
