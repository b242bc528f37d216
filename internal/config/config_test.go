package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sync.BatchSize != 5 {
		t.Errorf("default batch size = %d, want 5", cfg.Sync.BatchSize)
	}
	if cfg.Sync.MaxChunkSize != 8192 {
		t.Errorf("default chunk size = %d, want 8192", cfg.Sync.MaxChunkSize)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("default top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MinSimilarityScore != 0.7 {
		t.Errorf("default min score = %v, want 0.7", cfg.Retrieval.MinSimilarityScore)
	}
	if cfg.Sync.AutoInterval != 30*time.Minute {
		t.Errorf("default auto interval = %v, want 30m", cfg.Sync.AutoInterval)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero max_tokens", func(c *Config) { c.Cloudflare.MaxTokens = 0 }, true},
		{"temperature too high", func(c *Config) { c.Cloudflare.Temperature = 5.5 }, true},
		{"negative temperature", func(c *Config) { c.Cloudflare.Temperature = -0.1 }, true},
		{"zero attempts", func(c *Config) { c.Cloudflare.MaxAttempts = 0 }, true},
		{"zero batch size", func(c *Config) { c.Sync.BatchSize = 0 }, true},
		{"zero chunk size", func(c *Config) { c.Sync.MaxChunkSize = 0 }, true},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }, true},
		{"min score above 1", func(c *Config) { c.Retrieval.MinSimilarityScore = 1.5 }, true},
		{"bad output format", func(c *Config) { c.Output.DefaultFormat = "xml" }, true},
		{"bad color mode", func(c *Config) { c.Output.ColorMode = "sometimes" }, true},
		{"markdown format", func(c *Config) { c.Output.DefaultFormat = "markdown" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
