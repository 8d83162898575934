package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	a, err := c.Encrypt("ya29.token")
	require.NoError(t, err)
	b, err := c.Encrypt("ya29.token")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "v1:"))
	assert.NotEqual(t, a, b, "nonce must differ per message")
	assert.NotContains(t, a, "ya29")

	pt, err := c.Decrypt(a)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", pt)
}

func TestTokenCipher_Rejects(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	_, err = c.Decrypt("plain")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
	_, err = c.Decrypt("v1:!!")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
	_, err = c.Decrypt("v1:AAAA")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	other, err := NewEphemeralCipher()
	require.NoError(t, err)
	ct, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = c.Decrypt(ct)
	assert.Error(t, err, "a different key must not open the message")
}

func TestNewTokenCipher_KeyLength(t *testing.T) {
	_, err := NewTokenCipher("short")
	assert.Error(t, err)
}
