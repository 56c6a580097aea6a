package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"oracle/config"
	"oracle/internal/adapter/analyzer"
	"oracle/internal/adapter/cache"
	"oracle/internal/adapter/chunker"
	"oracle/internal/adapter/embedding"
	"oracle/internal/adapter/extractor"
	"oracle/internal/adapter/generation"
	"oracle/internal/adapter/memstore"
	"oracle/internal/adapter/store"
	"oracle/internal/port"
	"oracle/internal/usecase"
)

const pingTimeout = 5 * time.Second

// app is the fully wired oracle plus the resources it holds open.
type app struct {
	oracle    *usecase.Oracle
	index     port.Index
	generator string
	closer    io.Closer
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildApp wires the pipeline from configuration. Without withGenerator the
// stub backend is bound, which suits commands that never generate.
func buildApp(ctx context.Context, cfg *config.Config, dir string, withGenerator bool, logger *slog.Logger) (*app, error) {
	index, closer, err := openIndex(ctx, cfg, dir)
	if err != nil {
		return nil, err
	}
	a := &app{index: index, closer: closer}

	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	tokenizer := analyzer.NewTokenizer()

	embedder, err := newEmbedder(cfg, tokenizer)
	if err != nil {
		return fail(err)
	}

	chk, err := chunker.NewWindowChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return fail(err)
	}

	ext := extractor.NewFSExtractor(cfg.CorpusPath(dir), cfg.Corpus.Includes, cfg.Corpus.Excludes, logger)
	fingerprint := store.ComputeFingerprint(cfg)
	indexer := usecase.NewIndexUseCase(ext, chk, embedder, index, cfg.Index.BatchSize, fingerprint, logger)

	var retriever port.Retriever = usecase.NewRetrieveUseCase(embedder, index)
	var invalidator usecase.Invalidator
	if cfg.Retrieve.CacheSize > 0 {
		cached := cache.NewCachedRetriever(retriever, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
		retriever, invalidator = cached, cached
	}

	var gen port.Generator = generation.StubGenerator{}
	a.generator = "stub"
	if withGenerator {
		gen, a.generator, err = generation.Select(ctx, generationCandidates(cfg), logger)
		if err != nil {
			return fail(err)
		}
	}

	opts := port.CompletionOptions{
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Stop:        cfg.Generation.Stop,
	}
	assembler := usecase.NewContextAssembler(cfg.Context.GroupBudget, tokenizer)
	answerer := usecase.NewAnswerUseCase(index, retriever, assembler, gen, opts, logger)

	a.oracle = usecase.NewOracle(indexer, answerer, index, invalidator, fingerprint, cfg.Index.Backend)
	return a, nil
}

func openIndex(ctx context.Context, cfg *config.Config, dir string) (port.Index, io.Closer, error) {
	switch cfg.Index.Backend {
	case "memory":
		return memstore.NewMemoryIndex(cfg.Index.Collection), nopCloser{}, nil
	case "bolt", "sqlite":
	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}

	if cfg.Index.Path == "" {
		if err := config.EnsureStateDir(dir); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	path := cfg.IndexPath(dir)

	if cfg.Index.Backend == "sqlite" {
		idx, err := store.OpenSQLiteIndex(ctx, path, cfg.Index.Collection, cfg.Embedding.Dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open index: %w", err)
		}
		return idx, idx, nil
	}
	idx, err := store.OpenBoltIndex(path, cfg.Index.Collection, cfg.Embedding.Dimension)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, idx, nil
}

func newEmbedder(cfg *config.Config, tokenizer port.Tokenizer) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension, tokenizer), nil
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(
			cfg.Embedding.BaseURL,
			cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model,
			cfg.Embedding.Dimension,
			cfg.Embedding.Timeout,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func generationCandidates(cfg *config.Config) []generation.Candidate {
	candidates := make([]generation.Candidate, 0, len(cfg.Generation.Providers))
	for _, name := range cfg.Generation.Providers {
		switch name {
		case "openai":
			candidates = append(candidates, generation.Candidate{
				Name: name,
				Init: func(ctx context.Context) (port.Generator, error) {
					g, err := generation.NewOpenAIGenerator(
						cfg.Generation.BaseURL,
						cfg.Generation.APIKeyEnv,
						cfg.Generation.Model,
						cfg.Generation.Timeout,
					)
					if err != nil {
						return nil, err
					}
					pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
					defer cancel()
					if err := g.Ping(pingCtx); err != nil {
						return nil, err
					}
					return g, nil
				},
			})
		case "stub":
			candidates = append(candidates, generation.Candidate{
				Name: name,
				Init: func(context.Context) (port.Generator, error) {
					return generation.StubGenerator{}, nil
				},
			})
		default:
			candidates = append(candidates, generation.Candidate{
				Name: name,
				Init: func(context.Context) (port.Generator, error) {
					return nil, fmt.Errorf("unknown generation provider %q", name)
				},
			})
		}
	}
	return candidates
}

// warmMemoryIndex fills a non-persistent index so long-running commands
// have something to answer from.
func warmMemoryIndex(ctx context.Context, cfg *config.Config, a *app) error {
	if cfg.Index.Backend != "memory" {
		return nil
	}
	_, err := a.oracle.IndexDocuments(ctx, false, nil)
	return err
}
