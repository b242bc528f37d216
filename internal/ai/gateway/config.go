package gateway

import (
	"time"

	"notewise/internal/ai"
)

const defaultBaseURL = "https://gateway.ai.cloudflare.com/v1"

// Config holds the Cloudflare AI Gateway settings. AccountID, GatewayID,
// APIKey and the model ids are operator-supplied; everything else has
// working defaults.
type Config struct {
	AccountID      string
	GatewayID      string
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
}

// Validate checks required fields and numeric ranges. Failures are fatal
// configuration errors, raised before any network call.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ai.NewConfigurationError("gateway", "account_id", "cloudflare account id is required")
	}
	if c.GatewayID == "" {
		return ai.NewConfigurationError("gateway", "gateway_id", "ai gateway id is required")
	}
	if c.APIKey == "" {
		return ai.NewConfigurationError("gateway", "api_key", "api key is required")
	}
	if c.Model == "" {
		return ai.NewConfigurationError("gateway", "model", "text model id is required")
	}
	if c.EmbeddingModel == "" {
		return ai.NewConfigurationError("gateway", "embedding_model", "text embeddings model id is required")
	}
	if c.MaxTokens < 0 {
		return ai.NewConfigurationError("gateway", "max_tokens", "max tokens must not be negative")
	}
	if c.Temperature < 0 || c.Temperature > 5 {
		return ai.NewConfigurationError("gateway", "temperature", "temperature must be between 0 and 5")
	}
	return nil
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 256
	}
}
