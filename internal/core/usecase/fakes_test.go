package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// hashEmbedderFake maps each lowercase word to a hashed dimension, giving cosine overlap for shared words.
type hashEmbedderFake struct {
	dim     int
	err     error
	calls   int
	queries []string
	short   bool
}

func (f *hashEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, f.vector(text))
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *hashEmbedderFake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *hashEmbedderFake) vector(text string) []float32 {
	vec := make([]float32, f.dim)
	for _, word := range words(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[int(h.Sum32())%f.dim] += 1
	}
	return vec
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// memoryIndexFake is a brute-force cosine index.
type memoryIndexFake struct {
	spec      domain.IndexSpec
	created   int
	createErr error
	upserts   int
	records   map[string]domain.IndexRecord
	queryErr  error
}

func newMemoryIndexFake() *memoryIndexFake {
	return &memoryIndexFake{records: make(map[string]domain.IndexRecord)}
}

func (f *memoryIndexFake) CreateIfAbsent(_ context.Context, spec domain.IndexSpec) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	f.spec = spec
	return nil
}

func (f *memoryIndexFake) Upsert(_ context.Context, records []domain.IndexRecord) error {
	f.upserts++
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *memoryIndexFake) Query(_ context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]domain.RetrievedChunk, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, domain.RetrievedChunk{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Score: cosine(vector, r.Vector)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// groundedGeneratorFake answers from context only when the context mentions a question keyword.
type groundedGeneratorFake struct {
	prompts []domain.Prompt
	err     error
}

func (f *groundedGeneratorFake) Generate(_ context.Context, prompt domain.Prompt) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	contextWords := make(map[string]bool)
	for _, w := range words(prompt.Context) {
		contextWords[w] = true
	}
	for _, w := range words(prompt.Question) {
		if len(w) > 4 && contextWords[w] {
			first := strings.Split(prompt.Context, ContextSeparator)[0]
			return "According to the reference data: " + first, nil
		}
	}
	if !strings.Contains(prompt.SystemInstruction, InsufficientInformation) {
		return "made-up answer", nil
	}
	return InsufficientInformation, nil
}

type loaderFake struct {
	files []string
	pages map[string][]domain.RawDocument
	err   error
}

func (f *loaderFake) Files(string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

func (f *loaderFake) LoadFile(_ context.Context, path string) ([]domain.RawDocument, error) {
	pages, ok := f.pages[path]
	if !ok {
		return nil, errors.New("unknown file")
	}
	return pages, nil
}

// wholeChunkerFake returns documents unchanged.
type wholeChunkerFake struct{}

func (wholeChunkerFake) SplitDocuments(docs []domain.Document) []domain.Document { return docs }

type factsFake struct {
	facts []domain.RawDocument
	err   error
}

func (f factsFake) Facts() ([]domain.RawDocument, error) {
	return f.facts, f.err
}

type runStoreFake struct {
	started  string
	finished *domain.IngestReport
	runErr   error
}

func (f *runStoreFake) StartRun(_ context.Context, runID, _ string) error {
	f.started = runID
	return nil
}

func (f *runStoreFake) FinishRun(_ context.Context, report domain.IngestReport, runErr error) error {
	f.finished = &report
	f.runErr = runErr
	return nil
}
