package facts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// SupportedVersion is the fact file schema version understood by this package.
const SupportedVersion = 1

//go:embed ambulance.yaml
var builtin []byte

type factFile struct {
	Version int    `yaml:"version"`
	Facts   []fact `yaml:"facts"`
}

type fact struct {
	Text    string `yaml:"text"`
	Region  string `yaml:"region"`
	Country string `yaml:"country"`
}

// Set is a fixed list of hand-authored facts merged into every ingestion run.
type Set struct {
	docs []domain.RawDocument
}

// Builtin returns the embedded emergency-number fact table.
func Builtin() (*Set, error) {
	return Parse(builtin)
}

// Load reads a fact file from path, or the builtin table when path is empty.
func Load(path string) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "read facts file", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Set, error) {
	var file factFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "parse facts", err)
	}
	if file.Version != SupportedVersion {
		return nil, domain.WrapError(domain.ErrConfiguration, "parse facts", fmt.Errorf("unsupported version %d", file.Version))
	}

	docs := make([]domain.RawDocument, 0, len(file.Facts))
	for i, f := range file.Facts {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return nil, domain.WrapError(domain.ErrConfiguration, "parse facts", fmt.Errorf("fact %d has no text", i))
		}
		attrs := map[string]any{}
		if f.Region != "" {
			attrs[domain.MetaRegion] = f.Region
		}
		if f.Country != "" {
			attrs[domain.MetaCountry] = f.Country
		}
		docs = append(docs, domain.RawDocument{Text: text, Attributes: attrs})
	}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "parse facts", errors.New("no facts defined"))
	}
	return &Set{docs: docs}, nil
}

// Facts returns a copy so callers cannot mutate the set.
func (s *Set) Facts() ([]domain.RawDocument, error) {
	out := make([]domain.RawDocument, len(s.docs))
	copy(out, s.docs)
	return out, nil
}
