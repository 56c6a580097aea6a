package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"oracle/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve the oracle over HTTP.

Endpoints:
  GET  /health
  GET  /stats
  POST /query   {"question": "...", "n_results": 5, "show_sources": false}
  POST /index   {"force_reindex": false}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	a, err := buildApp(ctx, cfg, GetRootDir(), true, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := warmMemoryIndex(ctx, cfg, a); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Serving on http://%s (generator: %s)\n", addr, a.generator)
	srv := server.New(a.oracle, cfg.Retrieve.TopK, Version, logger)
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
