package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidKeySize    = errors.New("invalid key size: must be 32 bytes for AES-256")
	ErrEmptySecret       = errors.New("encryption secret is empty")
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short")
)

const historyKeyInfo = "wellness-backend chat history v1"

// DeriveKey expands an operator secret into a 32 byte AES-256 key.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(historyKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Cipher seals chat history columns. A nil *Cipher stores text as is.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher returns nil, nil for an empty secret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, nil
	}
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce + ciphertext + tag).
func (c *Cipher) Seal(plaintext string) (string, error) {
	if c == nil {
		return plaintext, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (c *Cipher) Open(encoded string) (string, error) {
	if c == nil {
		return encoded, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Enabled reports whether values are actually encrypted.
func (c *Cipher) Enabled() bool {
	return c != nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
