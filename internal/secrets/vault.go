package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig configures the HashiCorp Vault backend.
type VaultConfig struct {
	// Address of the Vault server, e.g. http://localhost:8200.
	Address string `yaml:"address"`

	// Token used to authenticate. Empty falls back to the VAULT_TOKEN
	// environment variable, which the client reads on its own.
	Token string `yaml:"token,omitempty"`

	// PathPrefix under which secrets are written, default "secret".
	PathPrefix string `yaml:"pathPrefix,omitempty"`
}

type vaultStore struct {
	client     *vault.Client
	pathPrefix string
}

// NewVaultStore creates a store backed by HashiCorp Vault.
func NewVaultStore(config VaultConfig) (Store, error) {
	cfg := vault.DefaultConfig()
	if config.Address != "" {
		cfg.Address = config.Address
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Token != "" {
		client.SetToken(config.Token)
	}

	prefix := config.PathPrefix
	if prefix == "" {
		prefix = "secret"
	}

	return &vaultStore{client: client, pathPrefix: prefix}, nil
}

func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.path(key))
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	if value, ok := secret.Data["value"].(string); ok {
		return value, nil
	}
	return "", fmt.Errorf("secret %s has no value field", key)
}

func (v *vaultStore) Set(ctx context.Context, key, value string) error {
	_, err := v.client.Logical().WriteWithContext(ctx, v.path(key), map[string]any{
		"value": value,
	})
	if err != nil {
		return fmt.Errorf("failed to write secret to vault: %w", err)
	}
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	if _, err := v.client.Logical().DeleteWithContext(ctx, v.path(key)); err != nil {
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}
	return nil
}

func (v *vaultStore) path(key string) string {
	return fmt.Sprintf("%s/%s", v.pathPrefix, key)
}
