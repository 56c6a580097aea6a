package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"oracle/config"
	"oracle/internal/tui"
)

var (
	chatTopK      int
	chatNoSources bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Open an interactive session. Type a question and press Enter; type
quit, exit or q (or press Ctrl+C) to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	chatCmd.Flags().BoolVar(&chatNoSources, "no-sources", false, "omit the list of source files")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	topK := cfg.Retrieve.TopK
	if chatTopK > 0 {
		topK = chatTopK
	}

	a, err := buildApp(ctx, cfg, GetRootDir(), true, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := warmMemoryIndex(ctx, cfg, a); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	stats, err := a.oracle.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}
	summary := fmt.Sprintf("%d chunks in %s | generator: %s | model: %s",
		stats.TotalChunks, stats.CollectionName, a.generator, cfg.Generation.Model)

	return tui.Run(ctx, a.oracle, topK, !chatNoSources, summary)
}

// chatLogging sends logs to a file under the state directory when none is
// configured, since stderr output would be drawn over the chat screen.
func chatLogging(logCfg config.LoggingConfig, dir string) config.LoggingConfig {
	if logCfg.Dir == "" {
		logCfg.Dir = filepath.Join(config.StateDir(dir), "logs")
	}
	return logCfg
}
