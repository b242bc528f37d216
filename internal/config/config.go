package config

import (
	"fmt"
	"time"

	"notewise/internal/secrets"
)

// Config holds the complete application configuration
type Config struct {
	Version    string           `yaml:"version" json:"version"`
	Vault      VaultConfig      `yaml:"vault" json:"vault"`
	Cloudflare CloudflareConfig `yaml:"cloudflare" json:"cloudflare"`
	Sync       SyncConfig       `yaml:"sync" json:"sync"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Secrets    secrets.Config   `yaml:"secrets" json:"secrets"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// VaultConfig locates the note vault and what to leave out of it
type VaultConfig struct {
	Path           string   `yaml:"path" json:"path"`                       // vault root directory
	IgnoredFolders []string `yaml:"ignored_folders" json:"ignored_folders"` // folders excluded from sync
}

// CloudflareConfig configures the AI gateway and Vectorize index
type CloudflareConfig struct {
	AccountID       string        `yaml:"account_id" json:"account_id"`
	GatewayID       string        `yaml:"gateway_id" json:"gateway_id"`
	IndexName       string        `yaml:"index_name" json:"index_name"`           // Vectorize index name
	APIKey          string        `yaml:"api_key" json:"api_key"`                 // gateway API token
	VectorizeAPIKey string        `yaml:"vectorize_api_key" json:"vectorize_api_key"`
	Model           string        `yaml:"model" json:"model"`                     // text generation model
	EmbeddingModel  string        `yaml:"embedding_model" json:"embedding_model"` // text embedding model
	MaxTokens       int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature     float64       `yaml:"temperature" json:"temperature"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts"` // per-request attempt budget
}

// SyncConfig configures the background sync engine
type SyncConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	AutoInterval time.Duration `yaml:"auto_interval" json:"auto_interval"` // periodic sync in watch mode
	BatchSize    int           `yaml:"batch_size" json:"batch_size"`
	MaxChunkSize int           `yaml:"max_chunk_size" json:"max_chunk_size"`
	StateDir     string        `yaml:"state_dir" json:"state_dir"` // sync state store location
}

// RetrievalConfig configures context retrieval
type RetrievalConfig struct {
	TopK               int     `yaml:"top_k" json:"top_k"`
	MinSimilarityScore float64 `yaml:"min_similarity_score" json:"min_similarity_score"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // json|text|markdown
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug|info|warn|error
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Vault: VaultConfig{
			Path:           ".",
			IgnoredFolders: []string{},
		},
		Cloudflare: CloudflareConfig{
			IndexName:      "notewise-notes",
			Model:          "@cf/meta/llama-3.3-70b-instruct-fp8-fast",
			EmbeddingModel: "@cf/baai/bge-base-en-v1.5",
			MaxTokens:      256,
			Temperature:    0.6,
			Timeout:        60 * time.Second,
			MaxAttempts:    3,
		},
		Sync: SyncConfig{
			Enabled:      true,
			AutoInterval: 30 * time.Minute,
			BatchSize:    5,
			MaxChunkSize: 8192,
			StateDir:     "~/.local/share/notewise/state",
		},
		Retrieval: RetrievalConfig{
			TopK:               3,
			MinSimilarityScore: 0.7,
		},
		Secrets: secrets.Config{
			Provider: "env",
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateCloudflareConfig(); err != nil {
		return err
	}
	if err := c.validateSyncConfig(); err != nil {
		return err
	}
	if err := c.validateRetrievalConfig(); err != nil {
		return err
	}
	return c.validateOutputConfig()
}

func (c *Config) validateCloudflareConfig() error {
	if c.Cloudflare.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be greater than 0")
	}
	if c.Cloudflare.Temperature < 0 || c.Cloudflare.Temperature > 5 {
		return fmt.Errorf("temperature must be between 0 and 5")
	}
	if c.Cloudflare.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be greater than 0")
	}
	if c.Cloudflare.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateSyncConfig() error {
	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("batch_size must be greater than 0")
	}
	if c.Sync.MaxChunkSize < 1 {
		return fmt.Errorf("max_chunk_size must be greater than 0")
	}
	if c.Sync.AutoInterval < 0 {
		return fmt.Errorf("auto_interval must be non-negative")
	}
	return nil
}

func (c *Config) validateRetrievalConfig() error {
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("top_k must be greater than 0")
	}
	if c.Retrieval.MinSimilarityScore < 0 || c.Retrieval.MinSimilarityScore > 1 {
		return fmt.Errorf("min_similarity_score must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}
