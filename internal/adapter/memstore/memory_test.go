package memstore

import (
	"context"
	"testing"

	"oracle/internal/domain"
)

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex("oracle_documents")

	err := idx.Add(ctx, []domain.IndexedEntry{
		{ID: "doc_0", Embedding: []float32{0, 1}, Text: "north", Metadata: domain.EntryMetadata{Filename: "a.txt"}},
		{ID: "doc_1", Embedding: []float32{1, 0}, Text: "east", Metadata: domain.EntryMetadata{Filename: "b.txt"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if n, _ := idx.Count(ctx); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}

	hits, err := idx.Query(ctx, []float32{0.9, 0.1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "doc_1" {
		t.Fatalf("expected doc_1 closest, got %+v", hits)
	}

	if err := idx.Add(ctx, []domain.IndexedEntry{{ID: "doc_0", Embedding: []float32{1, 1}}}); err == nil {
		t.Error("expected duplicate id error")
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.Count(ctx); n != 0 {
		t.Errorf("expected empty index after clear, got %d", n)
	}
	if idx.Name() != "oracle_documents" {
		t.Errorf("unexpected name %s", idx.Name())
	}
}
