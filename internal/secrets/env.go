package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type envStore struct{}

// NewEnvStore creates a store backed by process environment
// variables. Keys are upper-cased and prefixed, so "cloudflare.apiKey"
// resolves to NOTEWISE_CLOUDFLARE_APIKEY.
func NewEnvStore() Store {
	return &envStore{}
}

func (e *envStore) Get(_ context.Context, key string) (string, error) {
	name := envName(key)
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable not set: %s", name)
	}
	return value, nil
}

func (e *envStore) Set(_ context.Context, key, value string) error {
	return os.Setenv(envName(key), value)
}

func (e *envStore) Delete(_ context.Context, key string) error {
	return os.Unsetenv(envName(key))
}

func envName(key string) string {
	name := strings.ToUpper(key)
	name = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
	return "NOTEWISE_" + name
}
