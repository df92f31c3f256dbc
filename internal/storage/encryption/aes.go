// Package encryption provides AES-256-GCM encryption for data at rest.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/crypto/hkdf"
)

// KeyEnv names the environment variable holding the key material.
const KeyEnv = "ROBOADMIN_ENCRYPTION_KEY"

// hkdfInfo binds derived keys to this use.
const hkdfInfo = "roboadmin session tokens v1"

// Encryptor provides encryption/decryption for sensitive data
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AES implements AES-256-GCM encryption
type AES struct {
	aead cipher.AEAD
}

// New creates an encryptor with a key derived from ROBOADMIN_ENCRYPTION_KEY,
// or from machine identifiers when the variable is unset.
func New() (*AES, error) {
	material := os.Getenv(KeyEnv)
	if material == "" {
		material = deriveMachineKey()
	}
	key, err := DeriveKey([]byte(material))
	if err != nil {
		return nil, err
	}
	return NewWithKey(key)
}

// DeriveKey expands arbitrary key material into a 32-byte AES key.
func DeriveKey(material []byte) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, material, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// NewWithKey creates an encryptor with a specific key (for testing)
func NewWithKey(key []byte) (*AES, error) {
	if len(key) != 32 {
		return nil, errors.New("key must be 32 bytes for AES-256")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AES{aead: gcm}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM
func (e *AES) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM
func (e *AES) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// deriveMachineKey combines host identifiers so tokens at rest are not
// readable on another machine without configuration.
func deriveMachineKey() string {
	material := "roboadmin-default-key"

	if hostname, err := os.Hostname(); err == nil {
		material += hostname
	}
	if home, err := os.UserHomeDir(); err == nil {
		material += home
	}
	material += runtime.GOOS + runtime.GOARCH

	return material
}
