package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// HandlerFunc reads one file into documents.
type HandlerFunc func(ctx context.Context, path string) ([]domain.RawDocument, error)

var handlers = map[string]HandlerFunc{
	".pdf":  loadPDF,
	".txt":  loadText,
	".md":   loadText,
	".xlsx": loadXLSX,
}

// Loader enumerates source files under a directory and dispatches them to format handlers.
type Loader struct {
	patterns []string
	handlers map[string]HandlerFunc
}

// New builds a loader accepting only the listed extensions (for example ".pdf").
func New(extensions []string) (*Loader, error) {
	if len(extensions) == 0 {
		extensions = []string{".pdf"}
	}

	l := &Loader{handlers: make(map[string]HandlerFunc, len(extensions))}
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		handler, ok := handlers[ext]
		if !ok {
			return nil, domain.WrapError(domain.ErrConfiguration, "init loader", fmt.Errorf("unsupported extension %q", ext))
		}
		l.handlers[ext] = handler
		l.patterns = append(l.patterns, "**/*"+ext)
	}
	if len(l.handlers) == 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "init loader", errors.New("no extensions configured"))
	}
	return l, nil
}

// Files lists matching files under root in lexical order.
func (l *Loader) Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "list files", err)
	}
	if !info.IsDir() {
		return nil, domain.WrapError(domain.ErrLoad, "list files", fmt.Errorf("%s is not a directory", root))
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if l.matches(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "list files", err)
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrLoad, "list files", fmt.Errorf("no files matching %s under %s", strings.Join(l.patterns, ", "), root))
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handler, ok := l.handlers[normalizeExt(filepath.Ext(path))]
	if !ok {
		return nil, domain.WrapError(domain.ErrLoad, "load file", fmt.Errorf("no handler for %s", path))
	}
	docs, err := handler(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "load file", err)
	}
	return docs, nil
}

func (l *Loader) matches(rel string) bool {
	rel = strings.ToLower(rel)
	for _, pattern := range l.patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
