package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oracle/config"
	"oracle/internal/logging"
)

// Version is reported by the API health endpoint and --version.
const Version = "1.0.0"

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:     "oracle",
	Short:   "Oracle - Ask questions about your local documents",
	Version: Version,
	Long: `Oracle indexes a folder of text, markdown and HTML documents into a local
vector index and answers questions about them with a local language model.
Answers are grounded in the retrieved passages and list their source files.

Example usage:
  oracle index                       # Index the training/ folder
  oracle ask -q "vacation policy?"   # Ask a single question
  oracle chat                        # Interactive mode
  oracle serve                       # JSON API on 127.0.0.1:5000`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid directory: %w", err)
		}

		if err := godotenv.Load(filepath.Join(rootDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logCfg := cfg.Logging
		if logCfg.Dir != "" && !filepath.IsAbs(logCfg.Dir) {
			logCfg.Dir = filepath.Join(rootDir, logCfg.Dir)
		}
		if cmd == chatCmd {
			logCfg = chatLogging(logCfg, rootDir)
		}
		logger, logCloser, err = logging.New(logCfg, os.Stderr, time.Now())
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./oracle.yaml or ./.oracle/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// configSavePath is where commands that change settings write them back.
func configSavePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := config.PathInDir(rootDir); path != "" {
		return path
	}
	return filepath.Join(rootDir, "oracle.yaml")
}
