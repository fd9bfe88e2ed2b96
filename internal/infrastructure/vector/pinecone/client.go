// Package pinecone implements the vector index on a Pinecone serverless index.
package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/httpjson"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/resilience"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector"
)

const (
	DefaultControlURL = "https://api.pinecone.io"
	DefaultCloud      = "aws"
	DefaultRegion     = "us-east-1"
	apiVersion        = "2024-07"
)

type Options struct {
	ControlURL string
	Cloud      string
	Region     string

	UpsertBatchSize int
	Timeout         time.Duration
	Executor        *resilience.Executor

	// ReadyTimeout bounds the wait for a freshly created index to report ready.
	ReadyTimeout time.Duration
	PollInterval time.Duration
}

type Client struct {
	controlURL string
	indexName  string
	dimension  int
	cloud      string
	region     string
	batchSize  int

	readyTimeout time.Duration
	pollInterval time.Duration

	http *httpjson.Client

	mu   sync.Mutex
	host string
}

func New(apiKey, indexName string, dimension int, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "pinecone client", fmt.Errorf("api key is required"))
	}
	header := http.Header{}
	header.Set("Api-Key", apiKey)
	header.Set("X-Pinecone-API-Version", apiVersion)

	c := &Client{
		controlURL:   strings.TrimRight(opts.ControlURL, "/"),
		indexName:    indexName,
		dimension:    dimension,
		cloud:        opts.Cloud,
		region:       opts.Region,
		batchSize:    opts.UpsertBatchSize,
		readyTimeout: opts.ReadyTimeout,
		pollInterval: opts.PollInterval,
		http: httpjson.New("pinecone", httpjson.Options{
			Timeout:  opts.Timeout,
			Header:   header,
			Executor: opts.Executor,
		}),
	}
	if c.controlURL == "" {
		c.controlURL = DefaultControlURL
	}
	if c.cloud == "" {
		c.cloud = DefaultCloud
	}
	if c.region == "" {
		c.region = DefaultRegion
	}
	if c.readyTimeout <= 0 {
		c.readyTimeout = 2 * time.Minute
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	return c, nil
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

func (c *Client) CreateIfAbsent(ctx context.Context, spec domain.IndexSpec) error {
	if err := vector.ValidateSpec(spec); err != nil {
		return err
	}
	if err := vector.CheckBoundSpec("pinecone create index", c.indexName, c.dimension, spec); err != nil {
		return err
	}
	metric := strings.ToLower(spec.Metric)
	if metric == "" {
		metric = domain.MetricCosine
	}

	desc, err := c.describe(ctx, spec.Name)
	switch {
	case err == nil:
		if desc.Dimension != spec.Dimension || !strings.EqualFold(desc.Metric, metric) {
			return domain.WrapError(domain.ErrConfiguration, "pinecone create index", fmt.Errorf(
				"index %q exists with dimension=%d metric=%s, want dimension=%d metric=%s",
				spec.Name, desc.Dimension, desc.Metric, spec.Dimension, metric))
		}
		c.setHost(desc.Host)
		return nil
	case !httpjson.IsStatus(err, http.StatusNotFound):
		return httpjson.WrapProviderError(domain.ErrConfiguration, "pinecone describe index", err)
	}

	req := createIndexRequest{Name: spec.Name, Dimension: spec.Dimension, Metric: metric}
	req.Spec.Serverless.Cloud = c.cloud
	req.Spec.Serverless.Region = c.region
	if err := c.http.Do(ctx, http.MethodPost, c.controlURL+"/indexes", req, nil, "create_index"); err != nil {
		if !httpjson.IsStatus(err, http.StatusConflict) {
			return httpjson.WrapProviderError(domain.ErrConfiguration, "pinecone create index", err)
		}
	}
	return c.waitReady(ctx, spec.Name)
}

func (c *Client) waitReady(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		desc, err := c.describe(ctx, name)
		if err == nil && desc.Status.Ready && desc.Host != "" {
			c.setHost(desc.Host)
			return nil
		}
		if err != nil && !httpjson.IsStatus(err, http.StatusNotFound) {
			return httpjson.WrapProviderError(domain.ErrConfiguration, "pinecone wait for index", err)
		}
		select {
		case <-ctx.Done():
			return domain.WrapError(domain.ErrTemporary, "pinecone wait for index", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) describe(ctx context.Context, name string) (indexDescription, error) {
	var desc indexDescription
	err := c.http.Do(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil, &desc, "describe_index")
	return desc, err
}

func (c *Client) setHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = normalizeHost(host)
}

// dataURL resolves the index host lazily so a query-only process never needs CreateIfAbsent.
func (c *Client) dataURL(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	host := c.host
	c.mu.Unlock()
	if host != "" {
		return host + path, nil
	}

	desc, err := c.describe(ctx, c.indexName)
	if err != nil {
		if httpjson.IsStatus(err, http.StatusNotFound) {
			return "", domain.WrapError(domain.ErrNotFound, "pinecone resolve host", fmt.Errorf("index %q does not exist", c.indexName))
		}
		return "", httpjson.WrapProviderError(nil, "pinecone resolve host", err)
	}
	c.setHost(desc.Host)
	return normalizeHost(desc.Host) + path, nil
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (c *Client) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if err := vector.ValidateRecords("pinecone upsert", c.dimension, records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	url, err := c.dataURL(ctx, "/vectors/upsert")
	if err != nil {
		return err
	}

	for _, batch := range vector.Batches(records, c.batchSize) {
		vectors := make([]upsertVector, 0, len(batch))
		for _, record := range batch {
			vectors = append(vectors, upsertVector{
				ID:       record.ID,
				Values:   record.Vector,
				Metadata: vector.Payload(record.Text, record.Metadata),
			})
		}
		if err := c.http.Do(ctx, http.MethodPost, url, map[string]any{"vectors": vectors}, nil, "upsert"); err != nil {
			return httpjson.WrapProviderError(nil, "pinecone upsert", err)
		}
	}
	return nil
}

func (c *Client) Query(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	if err := domain.CheckDimension("pinecone query", c.dimension, queryVector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	url, err := c.dataURL(ctx, "/query")
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"vector":          queryVector,
		"topK":            k,
		"includeMetadata": true,
		"includeValues":   false,
	}
	var response struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.http.Do(ctx, http.MethodPost, url, request, &response, "query"); err != nil {
		return nil, httpjson.WrapProviderError(nil, "pinecone query", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(response.Matches))
	for _, m := range response.Matches {
		out = append(out, vector.ChunkFromPayload(m.ID, m.Score, m.Metadata))
	}
	return out, nil
}
