package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"oracle/internal/domain"
	"oracle/internal/port"
)

// ErrNoDocuments is returned when the corpus yields nothing to index.
var ErrNoDocuments = errors.New("no documents found to index")

// ProgressFunc is called after each stored batch with chunks done and total.
type ProgressFunc func(done, total int)

// IndexUseCase builds the vector index from the corpus.
type IndexUseCase struct {
	extractor   port.Extractor
	chunker     port.Chunker
	embedder    port.Embedder
	index       port.Index
	batchSize   int
	fingerprint string
	logger      *slog.Logger
}

// NewIndexUseCase creates a new index use case. fingerprint is recorded on
// indexes that support it after every successful build.
func NewIndexUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.Index,
	batchSize int,
	fingerprint string,
	logger *slog.Logger,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &IndexUseCase{
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		batchSize:   batchSize,
		fingerprint: fingerprint,
		logger:      logger,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Skipped   bool // index already populated and force was not set
	Cleared   bool
	Documents int
	Chunks    int
	Batches   int
}

// IndexDocuments builds the index. A populated index is left untouched
// unless force is set, in which case it is cleared and rebuilt from scratch.
// An unreadable corpus fails the run before anything is cleared.
func (u *IndexUseCase) IndexDocuments(ctx context.Context, force bool, progress ProgressFunc) (*IndexResult, error) {
	count, err := u.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index entries: %w", err)
	}

	result := &IndexResult{}
	if count > 0 && !force {
		u.logger.Info("index already populated, skipping", "chunks", count)
		result.Skipped = true
		result.Chunks = count
		return result, nil
	}

	if err := u.extractor.Validate(ctx); err != nil {
		return nil, err
	}

	if force {
		if err := u.index.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
		result.Cleared = true
		u.logger.Info("index cleared", "collection", u.index.Name())
	}

	docs, err := u.extractor.LoadAllDocuments(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return result, ErrNoDocuments
	}
	result.Documents = len(docs)

	chunks := ChunkDocuments(u.chunker, docs)
	if len(chunks) == 0 {
		return result, ErrNoDocuments
	}
	u.logger.Info("documents chunked", "documents", len(docs), "chunks", len(chunks))

	for start := 0; start < len(chunks); start += u.batchSize {
		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := u.indexBatch(ctx, chunks[start:end], start); err != nil {
			return result, err
		}

		result.Batches++
		result.Chunks = end
		if progress != nil {
			progress(end, len(chunks))
		}
	}

	if fp, ok := u.index.(port.Fingerprinter); ok && u.fingerprint != "" {
		if err := fp.SetFingerprint(ctx, u.fingerprint); err != nil {
			return result, fmt.Errorf("failed to record index fingerprint: %w", err)
		}
	}

	u.logger.Info("indexing complete", "documents", result.Documents, "chunks", result.Chunks, "batches", result.Batches)
	return result, nil
}

// indexBatch embeds one batch and stores it. offset is the running position
// of the first chunk, which determines its entry ID.
func (u *IndexUseCase) indexBatch(ctx context.Context, batch []domain.Chunk, offset int) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := u.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch at chunk %d: %w", offset, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
	}

	entries := make([]domain.IndexedEntry, len(batch))
	for i, c := range batch {
		entries[i] = domain.IndexedEntry{
			ID:        EntryID(offset + i),
			Embedding: vectors[i],
			Text:      c.Text,
			Metadata: domain.EntryMetadata{
				Filename:   c.Metadata.Filename,
				ChunkIndex: c.ChunkIndex,
			},
		}
	}

	if err := u.index.Add(ctx, entries); err != nil {
		return fmt.Errorf("failed to store batch at chunk %d: %w", offset, err)
	}
	return nil
}

// ChunkDocuments chunks every document, preserving document then chunk order.
func ChunkDocuments(c port.Chunker, docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Chunk(doc.Content, domain.ChunkMetadata{
			Filename: doc.Filename,
			Path:     doc.Path,
		})...)
	}
	return chunks
}

// EntryID returns the index ID of the i-th chunk of a build.
func EntryID(i int) string {
	return fmt.Sprintf("doc_%d", i)
}
