package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"oracle/internal/domain"
)

func TestIndexDocuments_Build(t *testing.T) {
	f := newFixture(2, corpus()...)
	ctx := context.Background()

	var progress []int
	result, err := f.indexer.IndexDocuments(ctx, false, func(done, total int) {
		progress = append(progress, done)
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Skipped || result.Cleared {
		t.Errorf("unexpected result flags: %+v", result)
	}
	if result.Documents != 3 || result.Chunks != 3 || result.Batches != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if fmt.Sprint(progress) != "[2 3]" {
		t.Errorf("unexpected progress calls: %v", progress)
	}
	if f.embedder.batchCalls != 2 {
		t.Errorf("expected one embedding call per batch, got %d", f.embedder.batchCalls)
	}
	if n, _ := f.index.Count(ctx); n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}
	if fp, _ := f.index.Fingerprint(ctx); fp != "fp-1" {
		t.Errorf("expected fingerprint recorded, got %q", fp)
	}
}

func TestIndexDocuments_IDsFollowChunkOrder(t *testing.T) {
	long := strings.Repeat("alpha beta gamma delta ", 60)
	f := newFixture(100,
		domain.Document{Filename: "long.txt", Content: long},
		domain.Document{Filename: "short.txt", Content: "tiny note"},
	)
	ctx := context.Background()

	if _, err := f.indexer.IndexDocuments(ctx, false, nil); err != nil {
		t.Fatal(err)
	}

	total, _ := f.index.Count(ctx)
	hits, _ := f.index.Query(ctx, make([]float32, 64), total)
	byID := make(map[string]domain.EntryMetadata)
	for _, h := range hits {
		byID[h.ID] = h.Metadata
	}
	for i := 0; i < total; i++ {
		if _, ok := byID[EntryID(i)]; !ok {
			t.Fatalf("missing entry %s", EntryID(i))
		}
	}
	last := byID[EntryID(total-1)]
	if last.Filename != "short.txt" || last.ChunkIndex != 0 {
		t.Errorf("expected last entry to be the short document, got %+v", last)
	}
	if first := byID[EntryID(0)]; first.Filename != "long.txt" || first.ChunkIndex != 0 {
		t.Errorf("expected first entry to be long.txt chunk 0, got %+v", first)
	}
}

func TestIndexDocuments_Idempotent(t *testing.T) {
	f := newFixture(100, corpus()...)
	ctx := context.Background()

	if _, err := f.indexer.IndexDocuments(ctx, false, nil); err != nil {
		t.Fatal(err)
	}
	result, err := f.indexer.IndexDocuments(ctx, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !result.Skipped {
		t.Error("second run without force should be skipped")
	}
	if f.extractor.calls != 1 || f.embedder.batchCalls != 1 {
		t.Errorf("skipped run must not load or embed: extractor=%d embed=%d", f.extractor.calls, f.embedder.batchCalls)
	}
	if n, _ := f.index.Count(ctx); n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}
}

func TestIndexDocuments_ForceRebuild(t *testing.T) {
	f := newFixture(100, corpus()...)
	ctx := context.Background()

	if _, err := f.indexer.IndexDocuments(ctx, false, nil); err != nil {
		t.Fatal(err)
	}

	f.extractor.set(domain.Document{Filename: "new.txt", Content: "Only this document remains."})
	result, err := f.indexer.IndexDocuments(ctx, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Cleared {
		t.Error("force should clear the index")
	}

	hits, _ := f.index.Query(ctx, make([]float32, 64), 10)
	if len(hits) != 1 || hits[0].Metadata.Filename != "new.txt" || hits[0].ID != "doc_0" {
		t.Errorf("expected only the new document, got %+v", hits)
	}
}

func TestIndexDocuments_NoDocuments(t *testing.T) {
	f := newFixture(100)
	_, err := f.indexer.IndexDocuments(context.Background(), false, nil)
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	if n, _ := f.index.Count(context.Background()); n != 0 {
		t.Errorf("nothing should be written, got %d entries", n)
	}
}

func TestIndexDocuments_ExtractorError(t *testing.T) {
	f := newFixture(100)
	f.extractor.err = errors.New("corpus directory not found")
	if _, err := f.indexer.IndexDocuments(context.Background(), false, nil); err == nil {
		t.Error("expected extractor error to propagate")
	}
}

func TestIndexDocuments_MissingCorpusKeepsIndex(t *testing.T) {
	f := newFixture(100, corpus()...)
	ctx := context.Background()

	if _, err := f.indexer.IndexDocuments(ctx, false, nil); err != nil {
		t.Fatal(err)
	}
	before, _ := f.index.Count(ctx)
	if before == 0 {
		t.Fatal("expected an indexed corpus")
	}

	missing := errors.New("corpus directory not found")
	f.extractor.missing = missing
	if result, err := f.indexer.IndexDocuments(ctx, false, nil); err != nil || !result.Skipped {
		t.Fatalf("populated index should still be skipped: %+v, %v", result, err)
	}

	_, err := f.indexer.IndexDocuments(ctx, true, nil)
	if !errors.Is(err, missing) {
		t.Fatalf("expected the corpus error, got %v", err)
	}

	if after, _ := f.index.Count(ctx); after != before {
		t.Errorf("forced run against a missing corpus cleared the index: %d -> %d", before, after)
	}
	if fp, _ := f.index.Fingerprint(ctx); fp != "fp-1" {
		t.Errorf("fingerprint changed to %q", fp)
	}
	if f.extractor.calls != 1 {
		t.Errorf("documents must not be loaded after validation fails, got %d loads", f.extractor.calls)
	}
}

func TestIndexDocuments_EmbeddingFailure(t *testing.T) {
	f := newFixture(100, corpus()...)
	f.embedder.failBatch = true

	_, err := f.indexer.IndexDocuments(context.Background(), false, nil)
	if err == nil || !strings.Contains(err.Error(), "embedding service unavailable") {
		t.Errorf("expected wrapped embedding error, got %v", err)
	}
	if fp, _ := f.index.Fingerprint(context.Background()); fp != "" {
		t.Error("failed build must not record a fingerprint")
	}
}

func TestIndexDocuments_VectorCountMismatch(t *testing.T) {
	f := newFixture(100, corpus()...)
	f.embedder.dropLast = true

	_, err := f.indexer.IndexDocuments(context.Background(), false, nil)
	if err == nil {
		t.Fatal("expected misaligned embedding error")
	}
	if n, _ := f.index.Count(context.Background()); n != 0 {
		t.Errorf("misaligned batch must not be stored, got %d entries", n)
	}
}
