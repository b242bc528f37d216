package secrets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"notewise/internal/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New("test", logger.NewConfig("error"))
}

func TestObfuscate(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short", "abc", "****"},
		{"seven chars", "1234567", "****"},
		{"typical token", "abcdefghijklmnopqrstuvwxyz", "abc****wxyz"},
		{"exactly eight", "abcdwxyz", "abc****wxyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Obfuscate(tt.secret); got != tt.want {
				t.Errorf("Obfuscate(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestObfuscateNeverLeaksMiddle(t *testing.T) {
	secret := "sk-live-supersecretmiddle-end1"
	got := Obfuscate(secret)
	if strings.Contains(got, "supersecret") {
		t.Errorf("Obfuscate() leaked the middle: %q", got)
	}
}

func TestEnvStore(t *testing.T) {
	store := NewEnvStore()
	ctx := context.Background()

	t.Setenv("NOTEWISE_CLOUDFLARE_APIKEY", "token-value")

	got, err := store.Get(ctx, "cloudflare.apiKey")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "token-value" {
		t.Errorf("Get() = %q", got)
	}

	if _, err := store.Get(ctx, "never.set"); err == nil {
		t.Error("Get() of unset variable should fail")
	}
}

func TestFileStoreUnencrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path, "", testLog(t))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "apiKey", "plain-secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "apiKey")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "plain-secret" {
		t.Errorf("Get() = %q", got)
	}
}

func TestFileStoreEncrypted(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "credentials.json")
	store, err := NewFileStore(path, keyFile, testLog(t))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "apiKey", "sealed-secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// The plaintext must not appear on disk.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "sealed-secret") {
		t.Error("secret stored in plaintext despite encryption key")
	}

	got, err := store.Get(ctx, "apiKey")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "sealed-secret" {
		t.Errorf("Get() = %q", got)
	}
}

func TestFileStoreMissingKeyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "no-such-key"), testLog(t))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "apiKey", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "apiKey")
	if err != nil || got != "value" {
		t.Errorf("Get() = %q, %v", got, err)
	}
}

func TestFileStoreBadKeyRejected(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("too short"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(filepath.Join(dir, "c.json"), keyFile, testLog(t)); err == nil {
		t.Error("NewFileStore() with an undersized key should fail")
	}
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path, "", testLog(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "apiKey", "value"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "apiKey"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "apiKey"); err == nil {
		t.Error("Get() after Delete() should fail")
	}

	if err := store.Delete(ctx, "apiKey"); err != nil {
		t.Errorf("Delete() of absent key error = %v", err)
	}
}

func TestNewStoreSelectsProvider(t *testing.T) {
	log := testLog(t)

	if _, err := NewStore(Config{Provider: "env"}, log); err != nil {
		t.Errorf("env provider error = %v", err)
	}
	if _, err := NewStore(Config{}, log); err != nil {
		t.Errorf("default provider error = %v", err)
	}
	if _, err := NewStore(Config{Provider: "file", Path: filepath.Join(t.TempDir(), "c.json")}, log); err != nil {
		t.Errorf("file provider error = %v", err)
	}
	if _, err := NewStore(Config{Provider: "file"}, log); err == nil {
		t.Error("file provider without a path should fail")
	}
	if _, err := NewStore(Config{Provider: "nope"}, log); err == nil {
		t.Error("unknown provider should fail")
	}
}
