package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// loadXLSX emits one document per data row. The first row is the header; cells are
// rendered as "header: value" lines, and region/country columns become attributes.
func loadXLSX(ctx context.Context, path string) ([]domain.RawDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var docs []domain.RawDocument
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
		}
		if len(rows) < 2 {
			continue
		}

		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(h)
		}

		for _, row := range rows[1:] {
			attrs := map[string]any{
				domain.MetaSource: path,
				"sheet":           sheet,
			}
			var lines []string
			for i, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				name := fmt.Sprintf("column %d", i+1)
				if i < len(header) && header[i] != "" {
					name = header[i]
				}
				switch strings.ToLower(name) {
				case domain.MetaRegion, domain.MetaCountry:
					attrs[strings.ToLower(name)] = cell
				}
				lines = append(lines, name+": "+cell)
			}
			if len(lines) == 0 {
				continue
			}
			docs = append(docs, domain.RawDocument{
				Text:       strings.Join(lines, "\n"),
				Attributes: attrs,
			})
		}
	}
	return docs, nil
}
