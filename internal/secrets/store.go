package secrets

import (
	"context"
	"fmt"
	"strings"

	"notewise/internal/logger"
)

// Store holds API credentials. Backends differ in where the secret
// lives and whether it is encrypted at rest.
type Store interface {
	// Get returns the secret for a key, or an error if it is not set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a secret.
	Set(ctx context.Context, key, value string) error

	// Delete removes a secret. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a secret store backend.
type Config struct {
	// Provider is one of "env", "file", or "vault". Empty means "env".
	Provider string `yaml:"provider"`

	// Path is the credential file location for the file backend.
	Path string `yaml:"path,omitempty"`

	// KeyFile holds the encryption key for the file backend. When it
	// is absent the file backend stores values unencrypted.
	KeyFile string `yaml:"keyFile,omitempty"`

	// Vault configures the HashiCorp Vault backend.
	Vault VaultConfig `yaml:"vault,omitempty"`
}

// NewStore creates the backend named by the config.
func NewStore(config Config, log *logger.Logger) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "file":
		return NewFileStore(config.Path, config.KeyFile, log)
	case "vault":
		return NewVaultStore(config.Vault)
	default:
		return nil, fmt.Errorf("unknown secret provider %q", config.Provider)
	}
}

// Obfuscate makes a secret safe to show in logs and UIs: the first
// three and last four characters with the middle masked. Secrets too
// short to keep any part of are fully masked.
func Obfuscate(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return strings.Repeat("*", 4)
	}
	return secret[:3] + "****" + secret[len(secret)-4:]
}
