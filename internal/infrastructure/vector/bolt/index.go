// Package bolt is a local, file-backed vector index with brute-force cosine search.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")
	keySpec       = []byte("spec")
)

// Index keeps every vector in memory for search and persists writes to bbolt.
type Index struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	spec    *domain.IndexSpec
	entries map[string]storedRecord
}

type storedRecord struct {
	Vector   []float32       `json:"v"`
	Text     string          `json:"t"`
	Metadata domain.Metadata `json:"m"`
}

// Open opens (or creates) the index file at path. dimension is the expected vector length;
// a file created with another dimension is rejected.
//
// The file is locked exclusively while open, so only one process can use it at a time.
func Open(path string, dimension int) (*Index, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "open bolt index", err)
	}

	idx := &Index{
		db:        db,
		dimension: dimension,
		entries:   make(map[string]storedRecord),
	}
	if err := idx.load(); err != nil {
		_ = db.Close()
		return nil, domain.WrapError(domain.ErrConfiguration, "load bolt index", err)
	}
	if idx.spec != nil {
		if idx.spec.Dimension != dimension {
			_ = db.Close()
			return nil, domain.WrapError(domain.ErrConfiguration, "open bolt index", fmt.Errorf(
				"index %q was created with dimension=%d, want dimension=%d",
				idx.spec.Name, idx.spec.Dimension, dimension))
		}
		idx.dimension = idx.spec.Dimension
	}
	return idx, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}

func (i *Index) load() error {
	return i.db.View(func(tx *bbolt.Tx) error {
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if raw := meta.Get(keySpec); raw != nil {
				var spec domain.IndexSpec
				if err := json.Unmarshal(raw, &spec); err != nil {
					return fmt.Errorf("decode index spec: %w", err)
				}
				i.spec = &spec
			}
		}
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec storedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %q: %w", k, err)
			}
			i.entries[string(k)] = rec
			return nil
		})
	})
}

func (i *Index) CreateIfAbsent(_ context.Context, spec domain.IndexSpec) error {
	if err := vector.ValidateSpec(spec); err != nil {
		return err
	}
	if spec.Metric == "" {
		spec.Metric = domain.MetricCosine
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.spec != nil {
		if i.spec.Dimension != spec.Dimension || !strings.EqualFold(i.spec.Metric, spec.Metric) {
			return domain.WrapError(domain.ErrConfiguration, "bolt create index", fmt.Errorf(
				"index %q exists with dimension=%d metric=%s, want dimension=%d metric=%s",
				i.spec.Name, i.spec.Dimension, i.spec.Metric, spec.Dimension, spec.Metric))
		}
		return nil
	}

	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encode index spec: %w", err)
	}
	err = i.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketVectors); err != nil {
			return err
		}
		return meta.Put(keySpec, raw)
	})
	if err != nil {
		return domain.WrapError(domain.ErrConfiguration, "bolt create index", err)
	}
	i.spec = &spec
	i.dimension = spec.Dimension
	return nil
}

func (i *Index) Upsert(_ context.Context, records []domain.IndexRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := vector.ValidateRecords("bolt upsert", i.dimension, records); err != nil {
		return err
	}

	if i.spec == nil {
		return domain.WrapError(domain.ErrNotFound, "bolt upsert", fmt.Errorf("index has not been created"))
	}

	err := i.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}
		for _, record := range records {
			data, err := json.Marshal(storedRecord{Vector: record.Vector, Text: record.Text, Metadata: record.Metadata})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(record.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt upsert: %w", err)
	}

	for _, record := range records {
		i.entries[record.ID] = storedRecord{Vector: record.Vector, Text: record.Text, Metadata: record.Metadata}
	}
	return nil
}

// Query ranks every stored vector by cosine similarity. Ties are broken by ID.
func (i *Index) Query(_ context.Context, query []float32, k int) ([]domain.RetrievedChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := domain.CheckDimension("bolt query", i.dimension, query); err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(i.entries))
	for id, rec := range i.entries {
		results = append(results, domain.RetrievedChunk{
			ID:       id,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    cosineSimilarity(query, rec.Vector),
		})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].ID < results[b].ID
	})

	if k < 0 {
		k = 0
	}
	return results[:min(k, len(results))], nil
}

func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for j := range a {
		dot += float64(a[j]) * float64(b[j])
		normA += float64(a[j]) * float64(a[j])
		normB += float64(b[j]) * float64(b[j])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
