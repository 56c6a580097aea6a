package usecase

import (
	"context"
	"fmt"
	"sync"

	"oracle/internal/domain"
	"oracle/internal/port"
)

// Invalidator is implemented by caches that must be dropped after a rebuild.
type Invalidator interface {
	Invalidate()
}

// Oracle is the service facade. Indexing holds the write lock, so a query
// never observes an index in the middle of a clear-then-rebuild.
type Oracle struct {
	mu          sync.RWMutex
	indexer     *IndexUseCase
	answerer    *AnswerUseCase
	index       port.Index
	cache       Invalidator
	fingerprint string
	backend     string
}

// NewOracle wires the facade. cache may be nil.
func NewOracle(indexer *IndexUseCase, answerer *AnswerUseCase, index port.Index, cache Invalidator, fingerprint, backend string) *Oracle {
	return &Oracle{
		indexer:     indexer,
		answerer:    answerer,
		index:       index,
		cache:       cache,
		fingerprint: fingerprint,
		backend:     backend,
	}
}

// IndexDocuments builds the index, see IndexUseCase.IndexDocuments.
func (o *Oracle) IndexDocuments(ctx context.Context, force bool, progress ProgressFunc) (*IndexResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result, err := o.indexer.IndexDocuments(ctx, force, progress)
	if o.cache != nil && (result == nil || !result.Skipped) {
		o.cache.Invalidate()
	}
	return result, err
}

// Answer returns the answer text for question.
func (o *Oracle) Answer(ctx context.Context, question string, k int, includeSources bool) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.answerer.Answer(ctx, question, k, includeSources)
}

// Ask returns the structured answer for question.
func (o *Oracle) Ask(ctx context.Context, question string, k int) (*Answer, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.answerer.Ask(ctx, question, k)
}

// GetStats reports the index size and whether it was built with a different configuration.
func (o *Oracle) GetStats(ctx context.Context) (domain.Stats, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	count, err := o.index.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to count index entries: %w", err)
	}

	stats := domain.Stats{
		TotalChunks:    count,
		CollectionName: o.index.Name(),
		Backend:        o.backend,
	}

	if fp, ok := o.index.(port.Fingerprinter); ok && count > 0 && o.fingerprint != "" {
		stored, err := fp.Fingerprint(ctx)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("failed to read index fingerprint: %w", err)
		}
		stats.Stale = stored != o.fingerprint
	}
	return stats, nil
}
