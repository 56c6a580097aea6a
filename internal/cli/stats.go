package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	a, err := buildApp(ctx, cfg, GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.oracle.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Collection:  %s\n", stats.CollectionName)
	fmt.Printf("Backend:     %s\n", stats.Backend)
	fmt.Printf("Chunks:      %d\n", stats.TotalChunks)
	fmt.Printf("Embedding:   %s/%s (%d dims)\n", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimension)
	fmt.Printf("Chunking:    %d chars, %d overlap\n", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if stats.Stale {
		fmt.Println("\nWarning: the index was built with different settings; run 'oracle index --force'.")
	}
	return nil
}
