package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata keys retained in the vector index.
const (
	MetaSource  = "source"
	MetaRegion  = "region"
	MetaCountry = "country"
)

// RawDocument is a loader output: text plus whatever attributes the source format exposes.
type RawDocument struct {
	Text       string
	Attributes map[string]any
}

// Metadata is the closed set of document attributes stored alongside each vector.
type Metadata struct {
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Fields returns only the non-empty attributes, keyed by their wire names.
func (m Metadata) Fields() map[string]any {
	out := make(map[string]any, 3)
	if m.Source != "" {
		out[MetaSource] = m.Source
	}
	if m.Region != "" {
		out[MetaRegion] = m.Region
	}
	if m.Country != "" {
		out[MetaCountry] = m.Country
	}
	return out
}

// MetadataFromFields is the inverse of Fields; unknown keys are ignored.
func MetadataFromFields(fields map[string]any) Metadata {
	return Metadata{
		Source:  scalarString(fields[MetaSource]),
		Region:  scalarString(fields[MetaRegion]),
		Country: scalarString(fields[MetaCountry]),
	}
}

type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// NormalizeDocuments reduces loader attributes to the Metadata whitelist.
// Text is never modified and absent, null or non-scalar values are dropped.
func NormalizeDocuments(raw []RawDocument) []Document {
	out := make([]Document, 0, len(raw))
	for _, doc := range raw {
		out = append(out, Document{
			Text:     doc.Text,
			Metadata: MetadataFromFields(doc.Attributes),
		})
	}
	return out
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
