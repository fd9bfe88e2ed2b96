package chunking

import "github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 20
)

// boundaryTiers lists split points from most to least preferred. Within a tier the latest match wins.
var boundaryTiers = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n")},
	{[]rune(". "), []rune("! "), []rune("? ")},
	{[]rune(" ")},
}

// Splitter cuts text into rune windows of at most ChunkSize where consecutive
// windows share exactly Overlap runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// SplitDocuments splits every document and copies its metadata onto each chunk.
func (s *Splitter) SplitDocuments(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		for _, piece := range s.Split(doc.Text) {
			out = append(out, domain.Document{
				Text:     piece,
				Metadata: doc.Metadata,
			})
		}
	}
	return out
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	out := make([]string, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	start := 0
	for {
		limit := start + s.ChunkSize
		if limit >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		end := s.boundary(runes, start, limit)
		out = append(out, string(runes[start:end]))
		start = end - s.Overlap
	}
	return out
}

// boundary returns the cut position in (start+Overlap, limit].
func (s *Splitter) boundary(runes []rune, start, limit int) int {
	minEnd := start + s.Overlap + 1
	for _, tier := range boundaryTiers {
		best := -1
		for _, sep := range tier {
			if cut := lastCut(runes, start, minEnd, limit, sep); cut > best {
				best = cut
			}
		}
		if best > 0 {
			return best
		}
	}
	return limit
}

// lastCut finds the largest cut in [minEnd, limit] such that runes[cut-len(sep):cut] == sep.
func lastCut(runes []rune, start, minEnd, limit int, sep []rune) int {
	for cut := limit; cut >= minEnd; cut-- {
		from := cut - len(sep)
		if from < start {
			return -1
		}
		if runesEqual(runes[from:cut], sep) {
			return cut
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
