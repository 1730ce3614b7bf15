package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Vault seals and opens provider secrets with AES-GCM. The master key
// is environment-provided and never persisted alongside the data; the
// per-seal nonce is stored beside the ciphertext as a separate field
// and is not secret.
type Vault struct {
	key []byte
}

// NewVault creates a vault with the given key.
// The key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("invalid key size: must be 16, 24, or 32 bytes, got %d", len(key))
	}
	return &Vault{key: key}, nil
}

// NewVaultFromBase64 creates a vault from a base64-encoded key.
func NewVaultFromBase64(encodedKey string) (*Vault, error) {
	if encodedKey == "" {
		return nil, fmt.Errorf("vault key cannot be empty")
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}

	return NewVault(key)
}

// GenerateVaultKey generates a new random master key of the specified
// size and returns it base64-encoded for storage in an environment
// variable.
func GenerateVaultKey(keySize int) (string, error) {
	if keySize != 16 && keySize != 24 && keySize != 32 {
		return "", fmt.Errorf("invalid key size: must be 16, 24, or 32 bytes")
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}

// Seal encrypts a plaintext secret and returns the base64 ciphertext
// together with the base64 nonce used for this seal operation.
func (v *Vault) Seal(plaintext string) (ciphertext, iv string, err error) {
	gcm, err := v.aead()
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed),
		base64.StdEncoding.EncodeToString(nonce), nil
}

// Open decrypts a sealed secret. A wrong key, a mismatched iv, or
// tampered ciphertext yields ErrDecryptionFailed, never garbage output.
func (v *Vault) Open(ciphertext, iv string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding: %v", ErrDecryptionFailed, err)
	}

	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding: %v", ErrDecryptionFailed, err)
	}

	gcm, err := v.aead()
	if err != nil {
		return "", err
	}

	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("%w: iv length %d", ErrDecryptionFailed, len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}
