package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor("segredo-de-teste")
	require.NoError(t, err)

	for _, plain := range []string{"eyJhbGciOiJIUzI1NiJ9.x.y", "Transação — café", strings.Repeat("a", 4096)} {
		c, err := enc.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, c)
		got, err := enc.Decrypt(c)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncryptorEmptyValues(t *testing.T) {
	enc, _ := NewEncryptor("k")
	c, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, c)
	p, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = NewEncryptor("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptorNonceDiffers(t *testing.T) {
	enc, _ := NewEncryptor("k")
	a, _ := enc.Encrypt("mesmo")
	b, _ := enc.Encrypt("mesmo")
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTamperingAndOtherKey(t *testing.T) {
	enc, _ := NewEncryptor("chave-a")
	other, _ := NewEncryptor("chave-b")
	c, _ := enc.Encrypt("token")

	_, err := other.Decrypt(c)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	raw := []byte(c)
	raw[len(raw)/2] ^= 0x01
	_, err = enc.Decrypt(string(raw))
	assert.Error(t, err)

	_, err = enc.Decrypt("não é base64!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = enc.Decrypt("YQ==")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
