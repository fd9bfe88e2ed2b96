package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
)

const defaultEmbedBatchSize = 32

// recordNamespace seeds deterministic record IDs so re-ingestion replaces records instead of duplicating them.
var recordNamespace = uuid.MustParse("6f1f6c1e-2a4b-5d0e-9c57-3b1d7a6e4f21")

type IngestOptions struct {
	Index          domain.IndexSpec
	EmbedBatchSize int
}

type IngestUseCase struct {
	loader   ports.DocumentLoader
	chunker  ports.Chunker
	facts    ports.FactSource
	embedder ports.Embedder
	index    ports.VectorIndex
	runs     ports.IngestRunStore

	opts IngestOptions
}

// NewIngestUseCase wires the ingestion flow. runs may be nil when no run ledger is configured.
func NewIngestUseCase(
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	facts ports.FactSource,
	embedder ports.Embedder,
	index ports.VectorIndex,
	runs ports.IngestRunStore,
	opts IngestOptions,
) *IngestUseCase {
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = defaultEmbedBatchSize
	}
	if opts.Index.Metric == "" {
		opts.Index.Metric = domain.MetricCosine
	}
	return &IngestUseCase{
		loader:   loader,
		chunker:  chunker,
		facts:    facts,
		embedder: embedder,
		index:    index,
		runs:     runs,
		opts:     opts,
	}
}

func (uc *IngestUseCase) Ingest(
	ctx context.Context,
	dataDir string,
	progress func(domain.IngestProgress),
) (*domain.IngestReport, error) {
	start := time.Now()
	report := &domain.IngestReport{
		RunID:   uuid.NewString(),
		DataDir: dataDir,
	}

	if uc.runs != nil {
		if err := uc.runs.StartRun(ctx, report.RunID, dataDir); err != nil {
			return nil, fmt.Errorf("start ingest run: %w", err)
		}
	}

	err := uc.ingest(ctx, dataDir, progress, report)
	report.Duration = time.Since(start)

	if uc.runs != nil {
		if finishErr := uc.runs.FinishRun(context.WithoutCancel(ctx), *report, err); finishErr != nil {
			slog.Error("ingest_run_finish_failed", "run_id", report.RunID, "error", finishErr)
		}
	}
	if err != nil {
		slog.Error("ingest_failed", "run_id", report.RunID, "data_dir", dataDir, "error", err)
		return report, err
	}

	slog.Info("ingest_completed",
		"run_id", report.RunID,
		"files", report.Files,
		"pages", report.Pages,
		"chunks", report.Chunks,
		"facts", report.Facts,
		"records", report.Records,
		"batches", report.Batches,
		"duration_ms", float64(report.Duration.Microseconds())/1000.0,
	)
	return report, nil
}

func (uc *IngestUseCase) ingest(
	ctx context.Context,
	dataDir string,
	progress func(domain.IngestProgress),
	report *domain.IngestReport,
) error {
	files, err := uc.loader.Files(dataDir)
	if err != nil {
		return err
	}
	report.Files = len(files)

	if err := uc.index.CreateIfAbsent(ctx, uc.opts.Index); err != nil {
		return fmt.Errorf("create index %s: %w", uc.opts.Index.Name, err)
	}

	batch := newRecordBatch(uc, report)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := uc.loader.LoadFile(ctx, file)
		if err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
		report.Pages += len(raw)

		chunks := uc.chunker.SplitDocuments(domain.NormalizeDocuments(raw))
		report.Chunks += len(chunks)
		for _, chunk := range chunks {
			if err := batch.add(ctx, chunk); err != nil {
				return err
			}
		}

		if progress != nil {
			progress(domain.IngestProgress{Processed: i + 1, Total: len(files), File: file})
		}
	}

	facts, err := uc.loadFacts()
	if err != nil {
		return err
	}
	report.Facts = len(facts)
	for _, fact := range facts {
		if err := batch.add(ctx, fact); err != nil {
			return err
		}
	}

	return batch.flush(ctx)
}

func (uc *IngestUseCase) loadFacts() ([]domain.Document, error) {
	if uc.facts == nil {
		return nil, nil
	}
	raw, err := uc.facts.Facts()
	if err != nil {
		return nil, fmt.Errorf("load static facts: %w", err)
	}
	return domain.NormalizeDocuments(raw), nil
}

// recordBatch accumulates documents and flushes them through embedding and upsert together.
type recordBatch struct {
	uc     *IngestUseCase
	report *domain.IngestReport

	docs     []domain.Document
	ids      []string
	ordinals map[string]int
}

func newRecordBatch(uc *IngestUseCase, report *domain.IngestReport) *recordBatch {
	return &recordBatch{
		uc:       uc,
		report:   report,
		docs:     make([]domain.Document, 0, uc.opts.EmbedBatchSize),
		ids:      make([]string, 0, uc.opts.EmbedBatchSize),
		ordinals: make(map[string]int),
	}
}

func (b *recordBatch) add(ctx context.Context, doc domain.Document) error {
	source := doc.Metadata.Source
	ordinal := b.ordinals[source]
	b.ordinals[source] = ordinal + 1

	b.docs = append(b.docs, doc)
	b.ids = append(b.ids, recordID(source, ordinal, doc.Text))
	if len(b.docs) >= b.uc.opts.EmbedBatchSize {
		return b.flush(ctx)
	}
	return nil
}

func (b *recordBatch) flush(ctx context.Context) error {
	if len(b.docs) == 0 {
		return nil
	}

	texts := make([]string, 0, len(b.docs))
	for _, doc := range b.docs {
		texts = append(texts, doc.Text)
	}

	vectors, err := b.uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return domain.WrapError(
			domain.ErrEmbedding,
			"embed batch",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts)),
		)
	}

	records := make([]domain.IndexRecord, 0, len(b.docs))
	for i, doc := range b.docs {
		if err := domain.CheckDimension("embed batch", b.uc.opts.Index.Dimension, vectors[i]); err != nil {
			return err
		}
		records = append(records, domain.IndexRecord{
			ID:       b.ids[i],
			Vector:   vectors[i],
			Text:     doc.Text,
			Metadata: doc.Metadata,
		})
	}

	if err := b.uc.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	b.report.Records += len(records)
	b.report.Batches++
	slog.Debug("ingest_batch_flushed", "run_id", b.report.RunID, "records", len(records), "batch", b.report.Batches)

	b.docs = b.docs[:0]
	b.ids = b.ids[:0]
	return nil
}

func recordID(source string, ordinal int, text string) string {
	key := source + "\x1f" + strconv.Itoa(ordinal) + "\x1f" + text
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}
