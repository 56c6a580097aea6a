package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"oracle/internal/domain"
	"oracle/internal/port"
)

const (
	defaultCapacity = 100
	defaultTTL      = 5 * time.Minute
)

// QueryCache holds retrieval results for recent questions. The least recently
// used entry is dropped once capacity is reached, and entries older than the
// TTL are never served.
type QueryCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	recency  *list.List // front is least recently used
	capacity int
	ttl      time.Duration
	epoch    uint64
	now      func() time.Time
}

type hit struct {
	key     string
	results []domain.RetrievalResult
	stored  time.Time
}

func NewQueryCache(capacity int, ttl time.Duration) *QueryCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &QueryCache{
		items:    make(map[string]*list.Element, capacity),
		recency:  list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// questionKey ignores whitespace around the question.
func questionKey(question string, k int) string {
	sum := sha256.Sum256(binary.BigEndian.AppendUint32([]byte(strings.TrimSpace(question)), uint32(k)))
	return hex.EncodeToString(sum[:16])
}

// Get returns a copy of the cached results for question and k.
func (c *QueryCache) Get(question string, k int) ([]domain.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[questionKey(question, k)]
	if !ok {
		return nil, false
	}
	h := el.Value.(*hit)
	if c.now().Sub(h.stored) > c.ttl {
		c.drop(el)
		return nil, false
	}
	c.recency.MoveToBack(el)
	return append([]domain.RetrievalResult(nil), h.results...), true
}

// Put stores results for question and k.
func (c *QueryCache) Put(question string, k int, results []domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(questionKey(question, k), results)
}

// putSince stores results only if no Invalidate happened after epoch was read.
func (c *QueryCache) putSince(epoch uint64, question string, k int, results []domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.store(questionKey(question, k), results)
}

func (c *QueryCache) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *QueryCache) store(key string, results []domain.RetrievalResult) {
	results = append([]domain.RetrievalResult(nil), results...)
	if el, ok := c.items[key]; ok {
		h := el.Value.(*hit)
		h.results, h.stored = results, c.now()
		c.recency.MoveToBack(el)
		return
	}
	for c.recency.Len() >= c.capacity {
		c.drop(c.recency.Front())
	}
	c.items[key] = c.recency.PushBack(&hit{key: key, results: results, stored: c.now()})
}

func (c *QueryCache) drop(el *list.Element) {
	c.recency.Remove(el)
	delete(c.items, el.Value.(*hit).key)
}

// Invalidate empties the cache. Results fetched before the call and stored
// after it are discarded.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.recency.Init()
	c.epoch++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}

// CachedRetriever serves repeated questions from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{retriever: retriever, cache: cache}
}

// Retrieve returns cached results when present. Empty results are cached too,
// since they only change after a reindex.
func (r *CachedRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	if results, ok := r.cache.Get(question, k); ok {
		return results, nil
	}

	epoch := r.cache.currentEpoch()
	results, err := r.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	r.cache.putSince(epoch, question, k, results)
	return results, nil
}

// Invalidate drops every cached result.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
