package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"oracle/internal/adapter/fs"
	"oracle/internal/domain"
	"oracle/internal/port"
)

// Reader turns one file into plain text.
type Reader func(path string) (string, error)

// FSExtractor loads every supported file below a corpus directory.
type FSExtractor struct {
	root    string
	walker  port.FileWalker
	readers map[string]Reader
	logger  *slog.Logger
}

func NewFSExtractor(root string, includes, excludes []string, logger *slog.Logger) *FSExtractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &FSExtractor{
		root:    root,
		walker:  fs.NewWalker(includes, excludes),
		readers: make(map[string]Reader),
		logger:  logger,
	}
	e.Register(ReadText, ".txt", ".md", ".markdown")
	e.Register(ReadHTML, ".html", ".htm")
	return e
}

// Register binds a reader to one or more file extensions (with the dot).
func (e *FSExtractor) Register(r Reader, exts ...string) {
	for _, ext := range exts {
		e.readers[strings.ToLower(ext)] = r
	}
}

// Validate checks that the corpus directory exists without reading it.
func (e *FSExtractor) Validate(ctx context.Context) error {
	return fs.CheckRoot(e.root)
}

// LoadAllDocuments reads the corpus in lexical path order. A file that fails
// to read is logged and skipped; only a missing or unreadable root is an error.
func (e *FSExtractor) LoadAllDocuments(ctx context.Context) ([]domain.Document, error) {
	files, err := e.walker.Walk(e.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	var docs []domain.Document
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(f.Path))
		read, ok := e.readers[ext]
		if !ok {
			e.logger.Debug("unsupported file type", "path", f.Path)
			continue
		}

		content, err := read(f.Path)
		if err != nil {
			e.logger.Warn("failed to extract document", "path", f.Path, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			e.logger.Info("skipping empty document", "path", f.Path)
			continue
		}

		docs = append(docs, domain.Document{
			Filename: filepath.Base(f.Path),
			Content:  content,
			Path:     f.Path,
		})
		e.logger.Debug("document loaded", "path", f.Path, "chars", len(content))
	}

	e.logger.Info("corpus loaded", "documents", len(docs), "files", len(files))
	return docs, nil
}
