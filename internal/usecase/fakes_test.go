package usecase

import (
	"context"
	"errors"
	"sync"

	"oracle/internal/adapter/chunker"
	"oracle/internal/adapter/embedding"
	"oracle/internal/adapter/memstore"
	"oracle/internal/domain"
	"oracle/internal/port"
)

type stubExtractor struct {
	mu      sync.Mutex
	docs    []domain.Document
	err     error
	missing error
	calls   int
}

func (e *stubExtractor) Validate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missing
}

func (e *stubExtractor) LoadAllDocuments(ctx context.Context) ([]domain.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.docs, e.err
}

func (e *stubExtractor) set(docs ...domain.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = docs
}

// countingEmbedder wraps the hash embedder and counts calls.
type countingEmbedder struct {
	mu         sync.Mutex
	inner      port.Embedder
	embedCalls int
	batchCalls int
	failBatch  bool
	dropLast   bool
	zero       bool
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: embedding.NewHashEmbedder(64, nil)}
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	zero := e.zero
	e.mu.Unlock()
	if zero {
		return make([]float32, e.inner.Dimension()), nil
	}
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	fail, drop := e.failBatch, e.dropLast
	e.mu.Unlock()
	if fail {
		return nil, errors.New("embedding service unavailable")
	}
	vectors, err := e.inner.EmbedBatch(ctx, texts)
	if drop && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, err
}

func (e *countingEmbedder) Dimension() int    { return e.inner.Dimension() }
func (e *countingEmbedder) ModelName() string { return "counting" }

type stubGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	prompts []string
	opts    []port.CompletionOptions
}

func (g *stubGenerator) Complete(ctx context.Context, prompt string, opts port.CompletionOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	return g.answer, g.err
}

func (g *stubGenerator) ModelName() string { return "stub-test" }

// fixedIndex returns canned hits regardless of the query vector.
type fixedIndex struct {
	hits  []port.IndexHit
	count int
	err   error
}

func (x *fixedIndex) Add(ctx context.Context, entries []domain.IndexedEntry) error { return nil }
func (x *fixedIndex) Query(ctx context.Context, vector []float32, k int) ([]port.IndexHit, error) {
	return x.hits, x.err
}
func (x *fixedIndex) Clear(ctx context.Context) error        { return nil }
func (x *fixedIndex) Count(ctx context.Context) (int, error) { return x.count, nil }
func (x *fixedIndex) Name() string                           { return "fixed" }

type fixture struct {
	extractor *stubExtractor
	embedder  *countingEmbedder
	index     *memstore.MemoryIndex
	generator *stubGenerator
	indexer   *IndexUseCase
	answerer  *AnswerUseCase
	oracle    *Oracle
}

func newFixture(batchSize int, docs ...domain.Document) *fixture {
	f := &fixture{
		extractor: &stubExtractor{docs: docs},
		embedder:  newCountingEmbedder(),
		index:     memstore.NewMemoryIndex("oracle_documents"),
		generator: &stubGenerator{answer: "Employees get 20 vacation days."},
	}
	ch, err := chunker.NewWindowChunker(500, 50)
	if err != nil {
		panic(err)
	}
	f.indexer = NewIndexUseCase(f.extractor, ch, f.embedder, f.index, batchSize, "fp-1", nil)
	f.answerer = NewAnswerUseCase(
		f.index,
		NewRetrieveUseCase(f.embedder, f.index),
		NewContextAssembler(2500, nil),
		f.generator,
		port.CompletionOptions{MaxTokens: 300, Temperature: 0.2},
		nil,
	)
	f.oracle = NewOracle(f.indexer, f.answerer, f.index, nil, "fp-1", "memory")
	return f
}

func corpus() []domain.Document {
	return []domain.Document{
		{Filename: "handbook.txt", Path: "/c/handbook.txt", Content: "Vacation policy: every employee gets 20 vacation days per year."},
		{Filename: "it.txt", Path: "/c/it.txt", Content: "Laptops are replaced every three years by the IT department."},
		{Filename: "office.txt", Path: "/c/office.txt", Content: "The office opens at nine and closes at six on weekdays."},
	}
}

func dist(d float64) *float64 { return &d }
