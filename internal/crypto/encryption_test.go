package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	k1, err := DeriveKey("correct horse")
	require.NoError(t, err)
	assert.Len(t, k1, 32)

	k2, err := DeriveKey("correct horse")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeriveKey("battery staple")
	require.NoError(t, err)
	assert.False(t, bytes.Equal(k1, k3))

	_, err = DeriveKey("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)
	require.True(t, c.Enabled())

	sealed, err := c.Seal("I have not slept in days")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "slept")

	again, err := c.Seal("I have not slept in days")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "I have not slept in days", plain)
}

func TestCipher_WrongKey(t *testing.T) {
	a, _ := NewCipher("one")
	b, _ := NewCipher("two")

	sealed, err := a.Seal("hello")
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open("AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNilCipherPassesThrough(t *testing.T) {
	c, err := NewCipher("")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())

	out, err := c.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = c.Open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestNewGCMKeySize(t *testing.T) {
	_, err := newGCM([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = newGCM(make([]byte, 32))
	assert.NoError(t, err)
}
