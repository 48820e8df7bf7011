package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("123456789000000000")
	require.NoError(t, err)
	assert.NotEqual(t, "123456789000000000", ciphertext)

	plaintext, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "123456789000000000", plaintext)
}

func TestAESEncryptionService_NondeterministicCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	c1, err := svc.Encrypt("1000")
	require.NoError(t, err)
	c2, err := svc.Encrypt("1000")
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2)
}

func TestAESEncryptionService_InvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("deadbeef")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("not hex at all")
	assert.Error(t, err)
}

func TestAESEncryptionService_Decrypt_Tampered(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("42")
	require.NoError(t, err)

	tampered := strings.Map(func(r rune) rune {
		if r == 'a' {
			return 'b'
		}
		return r
	}, ciphertext)
	if tampered == ciphertext {
		tampered = ciphertext[:len(ciphertext)-2] + "00"
	}

	_, err = svc.Decrypt(tampered)
	assert.Error(t, err)
}

func TestAESEncryptionService_Decrypt_TooShort(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	_, err = svc.Decrypt("abcd")
	assert.Error(t, err)
}
