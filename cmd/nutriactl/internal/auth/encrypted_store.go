package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// EncryptedStore seals every value of the wrapped store with XChaCha20-Poly1305.
// The storage key is bound as additional data, so a value copied to another key fails to open.
//
// Stored format: nonce (24 bytes) || ciphertext
type EncryptedStore struct {
	inner sdk.KeyValue
	key   []byte
}

var _ sdk.KeyValue = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner with a 32-byte key.
func NewEncryptedStore(inner sdk.KeyValue, key []byte) (*EncryptedStore, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &EncryptedStore{inner: inner, key: append([]byte(nil), key...)}, nil
}

// Get opens the value stored under key. Values that fail authentication are
// reported as sdk.ErrCorruptValue.
func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, false, fmt.Errorf("%w: ciphertext too short", sdk.ErrCorruptValue)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", sdk.ErrCorruptValue, err)
	}
	return plaintext, true, nil
}

// Set seals value and stores it under key.
func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.inner.Set(ctx, key, aead.Seal(nonce, nonce, value, []byte(key)))
}

// Delete removes the value stored under key.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// LoadOrGenerateKey loads the hex-encoded encryption key at keyPath,
// generating a new random key (0600) if the file does not exist.
func LoadOrGenerateKey(keyPath string, logger *slog.Logger) ([]byte, error) {
	data, err := os.ReadFile(keyPath)
	if err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("key file %s is not hex encoded: %w", keyPath, err)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s holds %d bytes, expected %d", keyPath, len(key), chacha20poly1305.KeySize)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	logger.Info("generated session encryption key", "path", keyPath)
	return key, nil
}
