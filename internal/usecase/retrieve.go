package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"oracle/internal/domain"
	"oracle/internal/port"
)

// ErrInvalidTopK is returned for k < 1.
var ErrInvalidTopK = errors.New("top-k must be at least 1")

// RetrieveUseCase finds the indexed chunks closest to a question.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    port.Index
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, index port.Index) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns up to k results ordered by ascending distance.
// An empty index or a question without a usable embedding yields no results.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}

	count, err := u.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index entries: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	vector, err := u.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if isZero(vector) {
		return nil, nil
	}

	hits, err := u.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}

		distance := h.Distance
		results = append(results, domain.RetrievalResult{
			ID:       h.ID,
			Text:     h.Text,
			Metadata: h.Metadata,
			Distance: &distance,
		})
	}

	SortByDistance(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SortByDistance orders results closest first. Results without a distance go
// last; equal distances keep their relative order.
func SortByDistance(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Distance, results[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
