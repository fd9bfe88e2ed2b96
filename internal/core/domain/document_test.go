package domain

import "testing"

func TestNormalizeDocumentsKeepsOnlyWhitelistedFields(t *testing.T) {
	raw := []RawDocument{
		{
			Text: "page one",
			Attributes: map[string]any{
				"source":      "data/book.pdf",
				"page":        3,
				"total_pages": 10,
				"producer":    "pdfTeX",
				"region":      nil,
			},
		},
		{
			Text:       "EU & UK Ambulance: 112.",
			Attributes: map[string]any{"region": "Europe", "country": ""},
		},
		{Text: "bare"},
	}

	docs := NormalizeDocuments(raw)
	if len(docs) != len(raw) {
		t.Fatalf("expected %d docs, got %d", len(raw), len(docs))
	}
	for i, doc := range docs {
		if doc.Text != raw[i].Text {
			t.Fatalf("text changed for doc %d: %q", i, doc.Text)
		}
		for key, value := range doc.Metadata.Fields() {
			switch key {
			case MetaSource, MetaRegion, MetaCountry:
			default:
				t.Fatalf("unexpected key %q in doc %d", key, i)
			}
			if value == nil || value == "" {
				t.Fatalf("empty value for key %q in doc %d", key, i)
			}
		}
	}

	if got := docs[0].Metadata.Fields(); len(got) != 1 || got[MetaSource] != "data/book.pdf" {
		t.Fatalf("unexpected metadata for pdf page: %#v", got)
	}
	if got := docs[1].Metadata.Fields(); len(got) != 1 || got[MetaRegion] != "Europe" {
		t.Fatalf("unexpected metadata for fact: %#v", got)
	}
	if got := docs[2].Metadata.Fields(); len(got) != 0 {
		t.Fatalf("expected no metadata, got %#v", got)
	}
}

func TestNormalizeDocumentsDropsNonScalarValues(t *testing.T) {
	docs := NormalizeDocuments([]RawDocument{{
		Text: "x",
		Attributes: map[string]any{
			"source":  []string{"a", "b"},
			"region":  map[string]any{"name": "Europe"},
			"country": 49,
		},
	}})
	if docs[0].Metadata.Source != "" || docs[0].Metadata.Region != "" {
		t.Fatalf("expected nested values to be dropped, got %#v", docs[0].Metadata)
	}
	if docs[0].Metadata.Country != "49" {
		t.Fatalf("expected numeric scalar rendered as string, got %q", docs[0].Metadata.Country)
	}
}

func TestCheckDimension(t *testing.T) {
	if err := CheckDimension("op", 3, []float32{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := CheckDimension("op", 384, []float32{1, 2})
	if !IsKind(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
