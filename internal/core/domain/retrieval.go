package domain

import "time"

const MetricCosine = "cosine"

// IndexSpec identifies a vector index and the shape every record in it must have.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
}

type IndexRecord struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

type RetrievedChunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// RetrievalResult is ordered by descending similarity.
type RetrievalResult struct {
	Chunks []RetrievedChunk
}

func (r RetrievalResult) Texts() []string {
	out := make([]string, 0, len(r.Chunks))
	for _, chunk := range r.Chunks {
		out = append(out, chunk.Text)
	}
	return out
}

type Prompt struct {
	SystemInstruction string
	Context           string
	Question          string
}

// SystemMessage renders the instruction followed by the retrieved context block.
func (p Prompt) SystemMessage() string {
	return p.SystemInstruction + "\n\n" + p.Context
}

type Answer struct {
	Text    string           `json:"text"`
	Sources []RetrievedChunk `json:"sources"`
}

type IngestRunStatus string

const (
	IngestRunning   IngestRunStatus = "running"
	IngestSucceeded IngestRunStatus = "succeeded"
	IngestFailed    IngestRunStatus = "failed"
)

type IngestReport struct {
	RunID    string        `json:"run_id"`
	DataDir  string        `json:"data_dir"`
	Files    int           `json:"files"`
	Pages    int           `json:"pages"`
	Chunks   int           `json:"chunks"`
	Facts    int           `json:"facts"`
	Records  int           `json:"records"`
	Batches  int           `json:"batches"`
	Duration time.Duration `json:"duration"`
}

// IngestProgress is reported after every processed source file.
type IngestProgress struct {
	Processed int
	Total     int
	File      string
}
