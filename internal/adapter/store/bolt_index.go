package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"oracle/internal/domain"
	"oracle/internal/port"
)

var bucketMeta = []byte("meta")

// BoltIndex implements port.Index on a BoltDB file. Vectors are mirrored in
// memory and searched by brute force.
type BoltIndex struct {
	db         *bbolt.DB
	collection []byte
	dimension  int

	mu      sync.RWMutex
	entries map[string]Candidate
}

type storedEntry struct {
	Vector   []float32            `json:"v"`
	Text     string               `json:"t"`
	Metadata domain.EntryMetadata `json:"m"`
}

// OpenBoltIndex opens (or creates) the index file at path.
func OpenBoltIndex(path, collection string, dimension int) (*BoltIndex, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	idx := &BoltIndex{
		db:         db,
		collection: []byte(collection),
		dimension:  dimension,
		entries:    make(map[string]Candidate),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{idx.collection, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return idx, nil
}

func (s *BoltIndex) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.collection).ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupted entry %s: %w", k, err)
			}
			s.entries[string(k)] = Candidate{
				ID:       string(k),
				Vector:   stored.Vector,
				Text:     stored.Text,
				Metadata: stored.Metadata,
			}
			return nil
		})
	})
}

func (s *BoltIndex) Add(ctx context.Context, entries []domain.IndexedEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if len(e.Embedding) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", e.ID, s.dimension, len(e.Embedding))
		}
		if _, exists := s.entries[e.ID]; exists {
			return fmt.Errorf("duplicate entry id: %s", e.ID)
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		for _, e := range entries {
			data, err := json.Marshal(storedEntry{Vector: e.Embedding, Text: e.Text, Metadata: e.Metadata})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store entries: %w", err)
	}

	for _, e := range entries {
		s.entries[e.ID] = Candidate{ID: e.ID, Vector: e.Embedding, Text: e.Text, Metadata: e.Metadata}
	}
	return nil
}

func (s *BoltIndex) Query(ctx context.Context, vector []float32, k int) ([]port.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector))
	}

	candidates := make([]Candidate, 0, len(s.entries))
	for _, c := range s.entries {
		candidates = append(candidates, c)
	}
	return Rank(vector, candidates, k), nil
}

// Clear drops and recreates the collection bucket and forgets the build fingerprint.
func (s *BoltIndex) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.collection); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(s.collection); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete(keyFingerprint)
	})
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	s.entries = make(map[string]Candidate)
	return nil
}

func (s *BoltIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *BoltIndex) Name() string {
	return string(s.collection)
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}
