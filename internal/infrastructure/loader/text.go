package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func loadText(_ context.Context, path string) ([]domain.RawDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid utf-8 text", path)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.RawDocument{{
		Text:       text,
		Attributes: map[string]any{domain.MetaSource: path},
	}}, nil
}
