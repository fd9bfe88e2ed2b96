// Package vector holds helpers shared by the vector index backends.
package vector

import (
	"fmt"
	"strings"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

const DefaultUpsertBatchSize = 100

// ValidateSpec checks that spec describes an index the backends can create.
func ValidateSpec(spec domain.IndexSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return domain.WrapError(domain.ErrConfiguration, "validate index spec", fmt.Errorf("index name is required"))
	}
	if spec.Dimension <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "validate index spec", fmt.Errorf("dimension must be positive, got %d", spec.Dimension))
	}
	if metric := strings.ToLower(spec.Metric); metric != "" && metric != domain.MetricCosine {
		return domain.WrapError(domain.ErrConfiguration, "validate index spec", fmt.Errorf("unsupported metric %q", spec.Metric))
	}
	return nil
}

// CheckBoundSpec rejects a spec for an index other than the one a client reads and writes.
func CheckBoundSpec(operation, name string, dimension int, spec domain.IndexSpec) error {
	if spec.Name != name {
		return domain.WrapError(domain.ErrConfiguration, operation, fmt.Errorf(
			"client is bound to index %q, got spec for %q", name, spec.Name))
	}
	if spec.Dimension != dimension {
		return domain.WrapError(domain.ErrConfiguration, operation, fmt.Errorf(
			"client expects dimension=%d, got spec with dimension=%d", dimension, spec.Dimension))
	}
	return nil
}

// ValidateRecords rejects the whole slice if any record has an empty ID or a vector of the wrong length.
func ValidateRecords(operation string, dimension int, records []domain.IndexRecord) error {
	for _, record := range records {
		if strings.TrimSpace(record.ID) == "" {
			return domain.WrapError(domain.ErrInvalidInput, operation, fmt.Errorf("record id is empty"))
		}
		if err := domain.CheckDimension(operation, dimension, record.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Batches splits records into consecutive slices of at most size elements.
func Batches(records []domain.IndexRecord, size int) [][]domain.IndexRecord {
	if size <= 0 {
		size = DefaultUpsertBatchSize
	}
	out := make([][]domain.IndexRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		out = append(out, records[start:end])
	}
	return out
}

// Payload flattens a record into the text + metadata attributes stored next to the vector.
func Payload(text string, metadata domain.Metadata) map[string]any {
	payload := map[string]any{"text": text}
	for key, value := range metadata.Fields() {
		payload[key] = value
	}
	return payload
}

// ChunkFromPayload is the inverse of Payload.
func ChunkFromPayload(id string, score float64, payload map[string]any) domain.RetrievedChunk {
	text, _ := payload["text"].(string)
	return domain.RetrievedChunk{
		ID:       id,
		Text:     text,
		Metadata: domain.MetadataFromFields(payload),
		Score:    score,
	}
}
