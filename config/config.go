package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the oracle.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Context    ContextConfig    `yaml:"context"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// CorpusConfig describes where the source documents live.
type CorpusConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds chunking and vector index configuration.
type IndexConfig struct {
	Backend      string `yaml:"backend"` // "bolt", "sqlite", "memory"
	Path         string `yaml:"path"`    // empty means <dir>/.oracle/index.<ext>
	Collection   string `yaml:"collection"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	BatchSize    int    `yaml:"batch_size"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "openai", "hash"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds language model configuration.
type GenerationConfig struct {
	Providers   []string      `yaml:"providers"` // tried in order, first usable wins
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	ModelsDir   string        `yaml:"models_dir"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Stop        []string      `yaml:"stop"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// ContextConfig holds prompt context assembly configuration.
type ContextConfig struct {
	GroupBudget int `yaml:"group_budget"` // characters per source file
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // empty logs to stderr
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:      "training",
			Includes: []string{"**/*.txt", "**/*.md", "**/*.markdown", "**/*.html", "**/*.htm"},
			Excludes: []string{"**/.git/**", "**/.oracle/**", "**/node_modules/**"},
		},
		Index: IndexConfig{
			Backend:      "bolt",
			Collection:   "oracle_documents",
			ChunkSize:    500,
			ChunkOverlap: 50,
			BatchSize:    100,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434/v1",
			APIKeyEnv: "ORACLE_API_KEY",
			Dimension: 384,
			Timeout:   60 * time.Second,
		},
		Generation: GenerationConfig{
			Providers:   []string{"openai", "stub"},
			BaseURL:     "http://localhost:11434/v1",
			APIKeyEnv:   "ORACLE_API_KEY",
			Model:       "mistral-7b-openorca.Q4_0.gguf",
			ModelsDir:   "models",
			MaxTokens:   512,
			Temperature: 0.2,
			Timeout:     5 * time.Minute,
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			CacheSize: 128,
			CacheTTL:  10 * time.Minute,
		},
		Context: ContextConfig{
			GroupBudget: 2500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:5000",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidConfig, c.Index.ChunkOverlap)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			ErrInvalidConfig, c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.Index.BatchSize)
	}
	switch c.Index.Backend {
	case "bolt", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidConfig, c.Index.Backend)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimension)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidConfig, c.Retrieve.TopK)
	}
	if c.Context.GroupBudget <= 0 {
		return fmt.Errorf("%w: group_budget must be positive, got %d", ErrInvalidConfig, c.Context.GroupBudget)
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidConfig, c.Generation.MaxTokens)
	}
	if len(c.Generation.Providers) == 0 {
		return fmt.Errorf("%w: at least one generation provider is required", ErrInvalidConfig)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for oracle.yaml).
func LoadFromDir(dir string) (*Config, error) {
	if path := PathInDir(dir); path != "" {
		return Load(path)
	}
	return DefaultConfig(), nil
}

// PathInDir returns the config file LoadFromDir would read, or "" if none exists.
func PathInDir(dir string) string {
	for _, path := range []string{
		filepath.Join(dir, "oracle.yaml"),
		filepath.Join(dir, ".oracle", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexPath returns the path of the persistent index for the configured backend.
func (c *Config) IndexPath(dir string) string {
	if c.Index.Path != "" {
		if filepath.IsAbs(c.Index.Path) {
			return c.Index.Path
		}
		return filepath.Join(dir, c.Index.Path)
	}
	name := "index.db"
	if c.Index.Backend == "sqlite" {
		name = "index.sqlite"
	}
	return filepath.Join(StateDir(dir), name)
}

// CorpusPath resolves the corpus directory relative to dir.
func (c *Config) CorpusPath(dir string) string {
	if filepath.IsAbs(c.Corpus.Dir) {
		return c.Corpus.Dir
	}
	return filepath.Join(dir, c.Corpus.Dir)
}

// ModelsPath resolves the local models directory relative to dir.
func (c *Config) ModelsPath(dir string) string {
	if filepath.IsAbs(c.Generation.ModelsDir) {
		return c.Generation.ModelsDir
	}
	return filepath.Join(dir, c.Generation.ModelsDir)
}

// StateDir returns the directory holding index files.
func StateDir(dir string) string {
	return filepath.Join(dir, ".oracle")
}

// EnsureStateDir ensures the .oracle directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(StateDir(dir), 0755)
}
