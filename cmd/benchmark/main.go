package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"oracle/config"
	"oracle/internal/adapter/analyzer"
	"oracle/internal/adapter/embedding"
	"oracle/internal/adapter/store"
	"oracle/internal/domain"
	"oracle/internal/port"
	"oracle/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Project directory holding the index")
	query := flag.String("q", "", "Question to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./project -q \"question\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Index and embedding setup (backend, model, dimension)")
		fmt.Println("  2. Retrieval latency")
		fmt.Println("  3. Distance of each match to the question")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	index, closeIndex, err := openIndex(ctx, cfg, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer closeIndex()

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := index.Count(ctx)
	fmt.Printf("Chunks indexed: %d (%s, %s)\n", count, index.Name(), cfg.Index.Backend)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	if count == 0 {
		fmt.Println("Index is empty - run 'oracle index' first")
		os.Exit(1)
	}

	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	retriever := usecase.NewRetrieveUseCase(embedder, index)
	start := time.Now()
	results, err := retriever.Retrieve(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	fmt.Printf("Top %d matches in %s:\n\n", len(results), elapsed.Round(time.Microsecond))
	if len(results) == 0 {
		return
	}

	total := 0.0
	for i, r := range results {
		preview := r.Text
		if len([]rune(preview)) > 150 {
			preview = string([]rune(preview)[:150]) + "..."
		}

		d := distance(r)
		total += d
		fmt.Printf("%d. [%s %.3f] %s#%d\n", i+1, rating(d), d, r.Metadata.Filename, r.Metadata.ChunkIndex)
		fmt.Printf("   %s\n\n", preview)
	}

	avg := total / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average distance: %.3f\n", avg)
	fmt.Printf("  Top-1 distance:   %.3f\n", distance(results[0]))

	if avg < 0.5 {
		fmt.Println("  Status: GOOD - matches are close to the question")
	} else if avg < 0.7 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider a neural embedder or a different chunk size")
	}
}

func distance(r domain.RetrievalResult) float64 {
	if r.Distance == nil {
		return 1
	}
	return *r.Distance
}

func rating(d float64) string {
	switch {
	case d < 0.3:
		return "HIGH"
	case d < 0.5:
		return "GOOD"
	case d < 0.7:
		return "OK"
	default:
		return "LOW"
	}
}

func openIndex(ctx context.Context, cfg *config.Config, dir string) (port.Index, func() error, error) {
	path := cfg.IndexPath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("no index at %s", path)
	}
	switch cfg.Index.Backend {
	case "sqlite":
		idx, err := store.OpenSQLiteIndex(ctx, path, cfg.Index.Collection, cfg.Embedding.Dimension)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	case "bolt":
		idx, err := store.OpenBoltIndex(path, cfg.Index.Collection, cfg.Embedding.Dimension)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	default:
		return nil, nil, fmt.Errorf("backend %q has no persistent index", cfg.Index.Backend)
	}
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension, analyzer.NewTokenizer()), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.Timeout)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
