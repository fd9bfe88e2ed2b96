package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// loadPDF emits one document per non-empty page. Page numbers are zero-based.
func loadPDF(ctx context.Context, path string) (docs []domain.RawDocument, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	docs = make([]domain.RawDocument, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.RawDocument{
			Text: text,
			Attributes: map[string]any{
				domain.MetaSource: path,
				"page":            i - 1,
				"total_pages":     total,
			},
		})
	}
	return docs, nil
}
