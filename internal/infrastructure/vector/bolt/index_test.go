package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func openTestIndex(t *testing.T, path string, dim int) *Index {
	t.Helper()
	idx, err := Open(path, dim)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSelfRetrieval(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 3)
	if err := idx.CreateIfAbsent(ctx, domain.IndexSpec{Name: "medical-chatbot", Dimension: 3, Metric: domain.MetricCosine}); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}

	records := []domain.IndexRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "fever", Metadata: domain.Metadata{Source: "book.pdf"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Text: "cough"},
		{ID: "c", Vector: []float32{0, 0, 1}, Text: "acne"},
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for _, rec := range records {
		got, err := idx.Query(ctx, rec.Vector, 1)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != rec.ID || got[0].Text != rec.Text || got[0].Metadata != rec.Metadata {
			t.Fatalf("expected %s first, got %+v", rec.ID, got)
		}
	}
}

func TestQueryOrdersByDescendingScore(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 2)
	_ = idx.CreateIfAbsent(ctx, domain.IndexSpec{Name: "x", Dimension: 2})
	_ = idx.Upsert(ctx, []domain.IndexRecord{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "near", Vector: []float32{1, 0.1}},
		{ID: "mid", Vector: []float32{1, 1}},
	})

	got, err := idx.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "near" || got[1].ID != "mid" || got[2].ID != "far" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestCreateIfAbsentIsIdempotentAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")
	spec := domain.IndexSpec{Name: "medical-chatbot", Dimension: 2, Metric: domain.MetricCosine}

	idx, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := idx.CreateIfAbsent(ctx, spec); err != nil {
		t.Fatalf("first CreateIfAbsent() error = %v", err)
	}
	if err := idx.CreateIfAbsent(ctx, spec); err != nil {
		t.Fatalf("second CreateIfAbsent() error = %v", err)
	}
	if err := idx.Upsert(ctx, []domain.IndexRecord{{ID: "a", Vector: []float32{1, 0}, Text: "kept"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	_ = idx.Close()

	reopened := openTestIndex(t, path, 2)
	if err := reopened.CreateIfAbsent(ctx, spec); err != nil {
		t.Fatalf("CreateIfAbsent() after reopen error = %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("expected persisted record, got %d", reopened.Count())
	}

	mismatch := domain.IndexSpec{Name: "medical-chatbot", Dimension: 384, Metric: domain.MetricCosine}
	if err := reopened.CreateIfAbsent(ctx, mismatch); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error on dimension mismatch, got %v", err)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 2)
	_ = idx.CreateIfAbsent(ctx, domain.IndexSpec{Name: "x", Dimension: 2})
	_ = idx.Upsert(ctx, []domain.IndexRecord{{ID: "a", Vector: []float32{1, 0}, Text: "old"}})
	_ = idx.Upsert(ctx, []domain.IndexRecord{{ID: "a", Vector: []float32{1, 0}, Text: "new"}})

	got, _ := idx.Query(ctx, []float32{1, 0}, 5)
	if len(got) != 1 || got[0].Text != "new" {
		t.Fatalf("expected single replaced record, got %+v", got)
	}
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 2)
	_ = idx.CreateIfAbsent(ctx, domain.IndexSpec{Name: "x", Dimension: 2})

	if err := idx.Upsert(ctx, []domain.IndexRecord{{ID: "a", Vector: []float32{1, 0, 0}}}); !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected upsert dimension mismatch, got %v", err)
	}
	if _, err := idx.Query(ctx, []float32{1}, 1); !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected query dimension mismatch, got %v", err)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := openTestIndex(t, filepath.Join(t.TempDir(), "index.db"), 2)
	got, err := idx.Query(context.Background(), []float32{1, 0}, 3)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
}

func TestReopenWithDifferentDimensionFails(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := Open(path, 3)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := idx.CreateIfAbsent(ctx, domain.IndexSpec{Name: "medical-chatbot", Dimension: 3}); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}
	if err := idx.Upsert(ctx, []domain.IndexRecord{{ID: "a", Vector: []float32{1, 0, 0}, Text: "112"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	_ = idx.Close()

	if reopened, err := Open(path, 4); !domain.IsKind(err, domain.ErrConfiguration) {
		if reopened != nil {
			_ = reopened.Close()
		}
		t.Fatalf("expected configuration error reopening with dimension 4, got %v", err)
	}

	reopened := openTestIndex(t, path, 3)
	if _, err := reopened.Query(ctx, []float32{1, 0, 0, 0}, 1); !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected query dimension mismatch without CreateIfAbsent, got %v", err)
	}
	got, err := reopened.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil || len(got) != 1 || got[0].ID != "a" || got[0].Score < 0.99 {
		t.Fatalf("unexpected query result %+v, err = %v", got, err)
	}
}

func TestOpenHoldsExclusiveFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	openTestIndex(t, path, 2)

	second, err := Open(path, 2)
	if !domain.IsKind(err, domain.ErrConfiguration) {
		if second != nil {
			_ = second.Close()
		}
		t.Fatalf("expected configuration error while the file is locked, got %v", err)
	}
}
