package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"notewise/internal/logger"
)

// fileStore keeps secrets in one JSON file. Values are sealed through
// the cipher selected at startup, so the store still works on machines
// without a provisioned key.
type fileStore struct {
	path   string
	cipher Cipher
	log    *logger.Logger

	mu sync.Mutex
}

// NewFileStore creates a file-backed store. keyFile may name a file
// holding a 32-byte key, hex-encoded or raw; an empty or missing key
// file selects the plaintext passthrough cipher.
func NewFileStore(path, keyFile string, log *logger.Logger) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file secret store requires a path")
	}

	c, err := NewCipher(keyFile)
	if err != nil {
		return nil, err
	}

	store := &fileStore{
		path:   path,
		cipher: c,
		log:    log.WithComponent("secrets"),
	}
	if !c.Available() {
		store.log.Warn("no encryption key available, storing credentials unencrypted")
	}

	return store, nil
}

func (f *fileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	stored, ok := values[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return f.cipher.Decrypt(stored)
}

func (f *fileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}

	sealed, err := f.cipher.Encrypt(value)
	if err != nil {
		return err
	}
	values[key] = sealed

	return f.save(values)
}

func (f *fileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *fileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return values, nil
}

func (f *fileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}
