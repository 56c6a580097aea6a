package cli

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"oracle/internal/usecase"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the document corpus",
	Long: `Read every supported document in the corpus directory, split it into
overlapping chunks, embed them and store them in the local index.

An index that already holds chunks is left as is unless --force is given,
in which case it is cleared and rebuilt from scratch.

Examples:
  oracle index            # Build the index if it is empty
  oracle index --force    # Rebuild after documents or settings changed`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "clear and rebuild the index")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	dir := GetRootDir()

	corpus := cfg.CorpusPath(dir)

	a, err := buildApp(ctx, cfg, dir, false, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Scanning %s...\n", corpus)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	showBar := term.IsTerminal(int(os.Stderr.Fd()))

	progress := func(done, total int) {
		if !showBar {
			return
		}
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := a.oracle.IndexDocuments(ctx, indexForce, progress)
	if errors.Is(err, usecase.ErrNoDocuments) {
		fmt.Printf("No documents found in %s.\n", corpus)
		return err
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	stats, err := a.oracle.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	if result.Skipped {
		fmt.Printf("\nIndex already contains %d chunks; use --force to rebuild.\n", result.Chunks)
		if stats.Stale {
			fmt.Println("Warning: the index was built with different chunking or embedding settings.")
			fmt.Println("Run 'oracle index --force' to rebuild it.")
		}
		return nil
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents:      %d\n", result.Documents)
	fmt.Printf("  Chunks created: %d\n", result.Chunks)
	fmt.Printf("  Batches:        %d\n", result.Batches)
	if result.Cleared {
		fmt.Printf("  Previous index cleared\n")
	}
	if cfg.Index.Backend != "memory" {
		fmt.Printf("\nIndex stored at: %s\n", cfg.IndexPath(dir))
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
