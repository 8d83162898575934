// Package security encrypts OAuth tokens before they are stored.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"subsavvy/internal/domain/ports/adapter"
)

var _ adapter.Cipher = (*TokenCipher)(nil)

// KeySize is the AES-256 key length.
const KeySize = 32

// formatV1 prefixes base64(nonce || sealed) so the format can change later.
const formatV1 = "v1:"

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// TokenCipher is AES-256-GCM with a random nonce per message.
type TokenCipher struct {
	gcm cipher.AEAD
}

func NewTokenCipher(key string) (*TokenCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes; got %d", KeySize, len(key))
	}
	return newCipher([]byte(key))
}

// NewEphemeralCipher uses a random key. Anything it encrypts is unreadable
// after a restart, so it is only for development.
func NewEphemeralCipher() (*TokenCipher, error) {
	k := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return nil, fmt.Errorf("rand key: %w", err)
	}
	return newCipher(k)
}

func newCipher(k []byte) (*TokenCipher, error) {
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &TokenCipher{gcm: gcm}, nil
}

func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return formatV1 + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *TokenCipher) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, formatV1) {
		return "", ErrMalformedCiphertext
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ciphertext, formatV1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	ns := c.gcm.NonceSize()
	if len(data) < ns+c.gcm.Overhead() {
		return "", ErrMalformedCiphertext
	}
	pt, err := c.gcm.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}
	return string(pt), nil
}
