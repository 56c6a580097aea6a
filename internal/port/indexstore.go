package port

import (
	"context"

	"oracle/internal/domain"
)

// Index stores embedded chunks and answers nearest-neighbour queries.
type Index interface {
	// Add appends entries to the index.
	Add(ctx context.Context, entries []domain.IndexedEntry) error

	// Query returns up to k entries closest to vector by cosine distance.
	Query(ctx context.Context, vector []float32, k int) ([]IndexHit, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Name returns the collection name.
	Name() string
}

// IndexHit is a single query match.
type IndexHit struct {
	ID       string
	Text     string
	Metadata domain.EntryMetadata
	Distance float64 // 1 - cosine similarity
}

// Fingerprinter is implemented by persistent indexes that remember the
// configuration they were built with.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
	SetFingerprint(ctx context.Context, fp string) error
}
