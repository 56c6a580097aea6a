package port

import (
	"context"

	"oracle/internal/domain"
)

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Extractor loads the corpus as plain-text documents. Validate fails when
// the corpus cannot be read at all.
type Extractor interface {
	Validate(ctx context.Context) error
	LoadAllDocuments(ctx context.Context) ([]domain.Document, error)
}
