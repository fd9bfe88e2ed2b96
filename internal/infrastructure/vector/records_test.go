package vector

import (
	"testing"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func TestBatchesSplitsRecords(t *testing.T) {
	records := make([]domain.IndexRecord, 7)
	batches := Batches(records, 3)
	if len(batches) != 3 || len(batches[0]) != 3 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batches: %d", len(batches))
	}
	if len(Batches(nil, 3)) != 0 {
		t.Fatalf("expected no batches for empty input")
	}
}

func TestValidateRecordsRejectsWrongDimension(t *testing.T) {
	records := []domain.IndexRecord{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{1, 0}},
	}
	if err := ValidateRecords("upsert", 3, records); !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if err := ValidateRecords("upsert", 3, []domain.IndexRecord{{Vector: []float32{1, 0, 0}}}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
}

func TestValidateSpec(t *testing.T) {
	if err := ValidateSpec(domain.IndexSpec{Name: "medical-chatbot", Dimension: 384, Metric: "cosine"}); err != nil {
		t.Fatalf("ValidateSpec() error = %v", err)
	}
	for _, spec := range []domain.IndexSpec{
		{Dimension: 384},
		{Name: "x"},
		{Name: "x", Dimension: 4, Metric: "dotproduct"},
	} {
		if err := ValidateSpec(spec); !domain.IsKind(err, domain.ErrConfiguration) {
			t.Fatalf("expected configuration error for %+v, got %v", spec, err)
		}
	}
}

func TestCheckBoundSpec(t *testing.T) {
	if err := CheckBoundSpec("create", "medical-chatbot", 384, domain.IndexSpec{Name: "medical-chatbot", Dimension: 384}); err != nil {
		t.Fatalf("CheckBoundSpec() error = %v", err)
	}
	for _, spec := range []domain.IndexSpec{
		{Name: "other-index", Dimension: 384},
		{Name: "medical-chatbot", Dimension: 768},
	} {
		if err := CheckBoundSpec("create", "medical-chatbot", 384, spec); !domain.IsKind(err, domain.ErrConfiguration) {
			t.Fatalf("expected configuration error for %+v, got %v", spec, err)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	meta := domain.Metadata{Source: "data/Medical_book.pdf", Region: "India"}
	chunk := ChunkFromPayload("id-1", 0.9, Payload("text", meta))
	if chunk.Text != "text" || chunk.Metadata != meta || chunk.Score != 0.9 || chunk.ID != "id-1" {
		t.Fatalf("unexpected chunk: %+v", chunk)
	}
}
