package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.notewise.yaml",               // Project-specific config (highest priority)
	"~/.config/notewise/config.yaml", // User config
	"/etc/notewise/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables (including a local .env file)
// 3. ./.notewise.yaml
// 4. ~/.config/notewise/config.yaml
// 5. /etc/notewise/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	// A local .env file feeds the environment overrides below. Its
	// absence is fine.
	_ = godotenv.Load()

	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths lowest priority first so later
		// files win.
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	config.Vault.Path = expandPath(config.Vault.Path)
	config.Sync.StateDir = expandPath(config.Sync.StateDir)

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Vault
		"NOTEWISE_VAULT_PATH": func(v string) error { config.Vault.Path = v; return nil },

		// Cloudflare
		"NOTEWISE_CF_ACCOUNT_ID":        func(v string) error { config.Cloudflare.AccountID = v; return nil },
		"NOTEWISE_CF_GATEWAY_ID":        func(v string) error { config.Cloudflare.GatewayID = v; return nil },
		"NOTEWISE_CF_INDEX_NAME":        func(v string) error { config.Cloudflare.IndexName = v; return nil },
		"NOTEWISE_CF_API_KEY":           func(v string) error { config.Cloudflare.APIKey = v; return nil },
		"NOTEWISE_CF_VECTORIZE_API_KEY": func(v string) error { config.Cloudflare.VectorizeAPIKey = v; return nil },
		"NOTEWISE_CF_MODEL":             func(v string) error { config.Cloudflare.Model = v; return nil },
		"NOTEWISE_CF_EMBEDDING_MODEL":   func(v string) error { config.Cloudflare.EmbeddingModel = v; return nil },
		"NOTEWISE_CF_MAX_TOKENS":        func(v string) error { return parseInt(v, &config.Cloudflare.MaxTokens) },
		"NOTEWISE_CF_TEMPERATURE":       func(v string) error { return parseFloat(v, &config.Cloudflare.Temperature) },
		"NOTEWISE_CF_TIMEOUT":           func(v string) error { return parseDuration(v, &config.Cloudflare.Timeout) },
		"NOTEWISE_CF_MAX_ATTEMPTS":      func(v string) error { return parseInt(v, &config.Cloudflare.MaxAttempts) },

		// Sync
		"NOTEWISE_SYNC_ENABLED":        func(v string) error { return parseBool(v, &config.Sync.Enabled) },
		"NOTEWISE_SYNC_AUTO_INTERVAL":  func(v string) error { return parseDuration(v, &config.Sync.AutoInterval) },
		"NOTEWISE_SYNC_BATCH_SIZE":     func(v string) error { return parseInt(v, &config.Sync.BatchSize) },
		"NOTEWISE_SYNC_MAX_CHUNK_SIZE": func(v string) error { return parseInt(v, &config.Sync.MaxChunkSize) },
		"NOTEWISE_SYNC_STATE_DIR":      func(v string) error { config.Sync.StateDir = v; return nil },

		// Retrieval
		"NOTEWISE_RETRIEVAL_TOP_K":     func(v string) error { return parseInt(v, &config.Retrieval.TopK) },
		"NOTEWISE_RETRIEVAL_MIN_SCORE": func(v string) error { return parseFloat(v, &config.Retrieval.MinSimilarityScore) },

		// Output
		"NOTEWISE_OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"NOTEWISE_OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"NOTEWISE_OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },

		// Logging
		"NOTEWISE_LOG_LEVEL": func(v string) error { config.Logging.Level = v; return nil },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Ignored folders are a comma-separated list
	if folders := os.Getenv("NOTEWISE_VAULT_IGNORED_FOLDERS"); folders != "" {
		config.Vault.IgnoredFolders = strings.Split(folders, ",")
		for i, folder := range config.Vault.IgnoredFolders {
			config.Vault.IgnoredFolders[i] = strings.TrimSpace(folder)
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeVaultConfig(&dst.Vault, &src.Vault)
	mergeCloudflareConfig(&dst.Cloudflare, &src.Cloudflare)
	mergeSyncConfig(&dst.Sync, &src.Sync)
	mergeRetrievalConfig(&dst.Retrieval, &src.Retrieval)
	mergeSecretsConfig(dst, src)
	mergeOutputConfig(&dst.Output, &src.Output)

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}

func mergeVaultConfig(dst, src *VaultConfig) {
	if src.Path != "" {
		dst.Path = src.Path
	}
	if len(src.IgnoredFolders) > 0 {
		dst.IgnoredFolders = src.IgnoredFolders
	}
}

func mergeCloudflareConfig(dst, src *CloudflareConfig) {
	if src.AccountID != "" {
		dst.AccountID = src.AccountID
	}
	if src.GatewayID != "" {
		dst.GatewayID = src.GatewayID
	}
	if src.IndexName != "" {
		dst.IndexName = src.IndexName
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.VectorizeAPIKey != "" {
		dst.VectorizeAPIKey = src.VectorizeAPIKey
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.EmbeddingModel != "" {
		dst.EmbeddingModel = src.EmbeddingModel
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxAttempts != 0 {
		dst.MaxAttempts = src.MaxAttempts
	}
}

func mergeSyncConfig(dst, src *SyncConfig) {
	if src.AutoInterval != 0 {
		dst.AutoInterval = src.AutoInterval
	}
	if src.BatchSize != 0 {
		dst.BatchSize = src.BatchSize
	}
	if src.MaxChunkSize != 0 {
		dst.MaxChunkSize = src.MaxChunkSize
	}
	if src.StateDir != "" {
		dst.StateDir = src.StateDir
	}
}

func mergeRetrievalConfig(dst, src *RetrievalConfig) {
	if src.TopK != 0 {
		dst.TopK = src.TopK
	}
	if src.MinSimilarityScore != 0 {
		dst.MinSimilarityScore = src.MinSimilarityScore
	}
}

func mergeSecretsConfig(dst, src *Config) {
	if src.Secrets.Provider != "" {
		dst.Secrets.Provider = src.Secrets.Provider
	}
	if src.Secrets.Path != "" {
		dst.Secrets.Path = src.Secrets.Path
	}
	if src.Secrets.KeyFile != "" {
		dst.Secrets.KeyFile = src.Secrets.KeyFile
	}
	if src.Secrets.Vault.Address != "" {
		dst.Secrets.Vault = src.Secrets.Vault
	}
}

func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Verbose {
		dst.Verbose = src.Verbose
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
