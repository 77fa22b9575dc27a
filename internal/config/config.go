// Package config loads the bulochat configuration: defaults, then an
// optional config.toml, then environment overrides. A .env file next to
// the working directory is honoured for the API key.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the per-user state directory under $HOME.
const DefaultDirName = ".bulochat"

// Config is the full application configuration.
type Config struct {
	// DataDir holds the SQLite database. Empty selects ~/.bulochat/data.
	DataDir string `toml:"data_dir"`

	OpenAI OpenAIConfig `toml:"openai"`
	Ingest IngestConfig `toml:"ingest"`
	Chat   ChatConfig   `toml:"chat"`
	Fetch  FetchConfig  `toml:"fetch"`
}

// OpenAIConfig configures the embedding and chat model adapters. The API
// key is never read from the TOML file; it comes from the environment or
// a .env file.
type OpenAIConfig struct {
	APIKey         string `toml:"-"`
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	ChatModel      string `toml:"chat_model"`
}

// IngestConfig configures chunking and crawl limits.
type IngestConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	MaxPosts     int `toml:"max_posts"`
}

// ChatConfig configures retrieval.
type ChatConfig struct {
	TopK int `toml:"top_k"`
}

// FetchConfig configures outbound request pacing.
type FetchConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Chat: ChatConfig{
			TopK: 3,
		},
		Fetch: FetchConfig{
			RequestsPerSecond: 2,
		},
	}
}

// Load builds the configuration. configDir empty selects ~/.bulochat.
// Missing config.toml is not an error; a malformed one is.
func Load(configDir string) (*Config, error) {
	// Best effort: a missing .env simply means the key is already in the
	// environment.
	_ = godotenv.Load()

	cfg := Default()

	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		configDir = filepath.Join(home, DefaultDirName)
	}

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(configDir, "data")
	}

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.OpenAI.BaseURL = base
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configuration that would corrupt a run rather than
// merely degrade it.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 {
		return fmt.Errorf("ingest.chunk_overlap must not be negative, got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than ingest.chunk_size (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	if c.Chat.TopK <= 0 {
		return fmt.Errorf("chat.top_k must be positive, got %d", c.Chat.TopK)
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be positive, got %v", c.Fetch.RequestsPerSecond)
	}
	return nil
}
