package cache

import (
	"context"
	"testing"
	"time"

	"oracle/internal/domain"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	r.calls++
	return []domain.RetrievalResult{{ID: "doc_0", Text: question}}, nil
}

func TestQueryCache_PutGet(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("q1", 5, []domain.RetrievalResult{{ID: "a"}})

	got, ok := c.Get(" q1 ", 5)
	if !ok || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected cache hit, got %v %v", got, ok)
	}
	if _, ok := c.Get("q1", 3); ok {
		t.Error("different k must miss")
	}
}

func TestQueryCache_Evicts(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("q1", 5, nil)
	c.Put("q2", 5, nil)
	c.Get("q1", 5)
	c.Put("q3", 5, nil)

	if _, ok := c.Get("q2", 5); ok {
		t.Error("least recently used entry should be evicted")
	}
	if _, ok := c.Get("q1", 5); !ok {
		t.Error("recently used entry should survive")
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("q", 5, nil)
	now = now.Add(time.Minute)
	if _, ok := c.Get("q", 5); !ok {
		t.Error("entry at exactly the TTL should still hit")
	}
	now = now.Add(time.Second)
	if _, ok := c.Get("q", 5); ok {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be dropped, size %d", c.Size())
	}
}

func TestQueryCache_EvictionOrder(t *testing.T) {
	c := NewQueryCache(3, time.Minute)
	for _, q := range []string{"a", "b", "c"} {
		c.Put(q, 5, nil)
	}
	c.Get("a", 5)
	c.Put("b", 5, []domain.RetrievalResult{{ID: "b2"}})
	c.Put("d", 5, nil)
	c.Put("e", 5, nil)

	for q, want := range map[string]bool{"a": false, "b": true, "c": false, "d": true, "e": true} {
		if _, ok := c.Get(q, 5); ok != want {
			t.Errorf("%s: present=%v, want %v", q, ok, want)
		}
	}
}

func TestQueryCache_ResultsAreCopied(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	in := []domain.RetrievalResult{{ID: "a"}}
	c.Put("q", 5, in)
	in[0].ID = "changed"

	got, _ := c.Get("q", 5)
	got[0].ID = "mutated"
	again, _ := c.Get("q", 5)
	if again[0].ID != "a" {
		t.Errorf("cached results were modified through a caller slice: %q", again[0].ID)
	}
}

func TestCachedRetriever_Invalidate(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))
	ctx := context.Background()

	r.Retrieve(ctx, "question", 5)
	r.Retrieve(ctx, "question", 5)
	if inner.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", inner.calls)
	}

	r.Invalidate()
	r.Retrieve(ctx, "question", 5)
	if inner.calls != 2 {
		t.Errorf("expected backend call after invalidate, got %d", inner.calls)
	}
}

type reindexingRetriever struct {
	cache *QueryCache
}

func (r *reindexingRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	r.cache.Invalidate()
	return []domain.RetrievalResult{{ID: "stale"}}, nil
}

func TestCachedRetriever_InvalidateDuringRetrieve(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	r := NewCachedRetriever(&reindexingRetriever{cache: c}, c)

	if _, err := r.Retrieve(context.Background(), "question", 5); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("question", 5); ok {
		t.Error("results fetched before an invalidate must not be cached")
	}
}
