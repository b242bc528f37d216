package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const encryptedPrefix = "enc:"

// Cipher seals and opens credential values. Available reports whether
// sealing actually encrypts; callers must never assume it does.
type Cipher interface {
	Available() bool
	Encrypt(plaintext string) (string, error)
	Decrypt(stored string) (string, error)
}

// NewCipher loads an AES-256 key from keyFile and returns an
// encrypting cipher. A missing or empty key file selects the
// plaintext passthrough instead; an unusable key is an error.
func NewCipher(keyFile string) (Cipher, error) {
	if keyFile == "" {
		return plainCipher{}, nil
	}

	data, err := os.ReadFile(keyFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return plainCipher{}, nil
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key := []byte(strings.TrimSpace(string(data)))
	if len(key) == 0 {
		return plainCipher{}, nil
	}
	if decoded, err := hex.DecodeString(string(key)); err == nil && len(decoded) == 32 {
		key = decoded
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key file must hold a 32-byte key, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &gcmCipher{aead: aead}, nil
}

// plainCipher is the fallback when no encryption key is provisioned.
// Values pass through untouched.
type plainCipher struct{}

func (plainCipher) Available() bool { return false }

func (plainCipher) Encrypt(plaintext string) (string, error) { return plaintext, nil }

func (plainCipher) Decrypt(stored string) (string, error) {
	if strings.HasPrefix(stored, encryptedPrefix) {
		return "", fmt.Errorf("credential is encrypted but no key is available")
	}
	return stored, nil
}

// gcmCipher seals values with AES-GCM, prefixing the stored form so
// encrypted and plaintext entries can coexist in one file.
type gcmCipher struct {
	aead cipher.AEAD
}

func (g *gcmCipher) Available() bool { return true }

func (g *gcmCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, g.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := g.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Plaintext values read back unchanged even
// when a key is available, so adding a key later does not break
// existing entries.
func (g *gcmCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encryptedPrefix) {
		return stored, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode credential: %w", err)
	}
	if len(sealed) < g.aead.NonceSize() {
		return "", fmt.Errorf("credential is truncated")
	}

	nonce, ciphertext := sealed[:g.aead.NonceSize()], sealed[g.aead.NonceSize():]
	plaintext, err := g.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plaintext), nil
}
