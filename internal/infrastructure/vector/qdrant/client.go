package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/httpjson"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector"
)

type Options struct {
	APIKey          string
	UpsertBatchSize int
	Timeout         time.Duration
	Executor        *resilience.Executor
}

type Client struct {
	baseURL    string
	collection string
	dimension  int
	batchSize  int
	http       *httpjson.Client
}

func New(baseURL, collection string, dimension int, opts Options) *Client {
	header := http.Header{}
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		header.Set("api-key", key)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		batchSize:  opts.UpsertBatchSize,
		http: httpjson.New("qdrant", httpjson.Options{
			Timeout:  timeout,
			Header:   header,
			Executor: opts.Executor,
		}),
	}
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors vectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

func (c *Client) CreateIfAbsent(ctx context.Context, spec domain.IndexSpec) error {
	if err := vector.ValidateSpec(spec); err != nil {
		return err
	}
	if err := vector.CheckBoundSpec("qdrant create collection", c.collection, c.dimension, spec); err != nil {
		return err
	}
	url := c.collectionURL(spec.Name)

	var info collectionInfo
	err := c.http.Do(ctx, http.MethodGet, url, nil, &info, "get_collection")
	switch {
	case err == nil:
		existing := info.Result.Config.Params.Vectors
		if existing.Size != spec.Dimension || !strings.EqualFold(existing.Distance, "cosine") {
			return domain.WrapError(domain.ErrConfiguration, "qdrant create collection", fmt.Errorf(
				"collection %q exists with size=%d distance=%s, want size=%d distance=Cosine",
				spec.Name, existing.Size, existing.Distance, spec.Dimension))
		}
		return nil
	case !httpjson.IsStatus(err, http.StatusNotFound):
		return httpjson.WrapProviderError(domain.ErrConfiguration, "qdrant get collection", err)
	}

	request := map[string]any{
		"vectors": vectorParams{Size: spec.Dimension, Distance: "Cosine"},
	}
	if err := c.http.Do(ctx, http.MethodPut, url, request, nil, "create_collection"); err != nil {
		// Another writer may have created it between the lookup and the create.
		if httpjson.IsStatus(err, http.StatusConflict) {
			return nil
		}
		return httpjson.WrapProviderError(domain.ErrConfiguration, "qdrant create collection", err)
	}
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if err := vector.ValidateRecords("qdrant upsert", c.dimension, records); err != nil {
		return err
	}
	url := c.collectionURL(c.collection) + "/points?wait=true"
	for _, batch := range vector.Batches(records, c.batchSize) {
		points := make([]point, 0, len(batch))
		for _, record := range batch {
			points = append(points, point{
				ID:      record.ID,
				Vector:  record.Vector,
				Payload: vector.Payload(record.Text, record.Metadata),
			})
		}
		if err := c.http.Do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert"); err != nil {
			return httpjson.WrapProviderError(nil, "qdrant upsert", err)
		}
	}
	return nil
}

func (c *Client) Query(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	if err := domain.CheckDimension("qdrant query", c.dimension, queryVector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	request := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}

	var response struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := c.collectionURL(c.collection) + "/points/search"
	if err := c.http.Do(ctx, http.MethodPost, url, request, &response, "search"); err != nil {
		return nil, httpjson.WrapProviderError(nil, "qdrant search", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(response.Result))
	for _, r := range response.Result {
		out = append(out, vector.ChunkFromPayload(fmt.Sprintf("%v", r.ID), r.Score, r.Payload))
	}
	return out, nil
}

func (c *Client) collectionURL(name string) string {
	return fmt.Sprintf("%s/collections/%s", c.baseURL, name)
}
