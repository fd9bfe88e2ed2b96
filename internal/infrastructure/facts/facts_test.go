package facts

import (
	"testing"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func TestBuiltinContainsRegionalAmbulanceNumbers(t *testing.T) {
	set, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	docs, err := set.Facts()
	if err != nil {
		t.Fatalf("Facts() error = %v", err)
	}
	if len(docs) != 7 {
		t.Fatalf("expected 7 facts, got %d", len(docs))
	}
	if docs[0].Text != "EU & UK Ambulance: 112." || docs[0].Attributes[domain.MetaRegion] != "Europe" {
		t.Fatalf("unexpected first fact: %#v", docs[0])
	}

	normalized := domain.NormalizeDocuments(docs)
	for _, doc := range normalized {
		if doc.Metadata.Region == "" || doc.Metadata.Source != "" {
			t.Fatalf("expected region-only metadata, got %#v", doc.Metadata)
		}
	}
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"wrong version": "version: 2\nfacts:\n  - text: x\n",
		"empty text":    "version: 1\nfacts:\n  - region: Europe\n",
		"no facts":      "version: 1\nfacts: []\n",
		"bad yaml":      "version: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); !domain.IsKind(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestFactsReturnsCopy(t *testing.T) {
	set, err := Parse([]byte("version: 1\nfacts:\n  - text: Egypt Ambulance 123\n    country: Egypt\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	docs, _ := set.Facts()
	docs[0].Text = "mutated"
	again, _ := set.Facts()
	if again[0].Text != "Egypt Ambulance 123" || again[0].Attributes[domain.MetaCountry] != "Egypt" {
		t.Fatalf("set was mutated: %#v", again[0])
	}
}
