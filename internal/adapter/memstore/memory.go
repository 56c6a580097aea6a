package memstore

import (
	"context"
	"fmt"
	"sync"

	"oracle/internal/adapter/store"
	"oracle/internal/domain"
	"oracle/internal/port"
)

// MemoryIndex is a non-persistent port.Index, used for tests and for
// one-shot runs with index.backend set to "memory".
type MemoryIndex struct {
	mu      sync.RWMutex
	name    string
	entries []store.Candidate
	ids     map[string]struct{}
	fp      string
}

func NewMemoryIndex(name string) *MemoryIndex {
	return &MemoryIndex{
		name: name,
		ids:  make(map[string]struct{}),
	}
}

func (s *MemoryIndex) Add(ctx context.Context, entries []domain.IndexedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if _, exists := s.ids[e.ID]; exists {
			return fmt.Errorf("duplicate entry id: %s", e.ID)
		}
	}
	for _, e := range entries {
		s.ids[e.ID] = struct{}{}
		s.entries = append(s.entries, store.Candidate{
			ID:       e.ID,
			Vector:   e.Embedding,
			Text:     e.Text,
			Metadata: e.Metadata,
		})
	}
	return nil
}

func (s *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]port.IndexHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Rank(vector, s.entries, k), nil
}

func (s *MemoryIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.ids = make(map[string]struct{})
	s.fp = ""
	return nil
}

func (s *MemoryIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryIndex) Name() string {
	return s.name
}

func (s *MemoryIndex) Fingerprint(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fp, nil
}

func (s *MemoryIndex) SetFingerprint(ctx context.Context, fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fp = fp
	return nil
}
