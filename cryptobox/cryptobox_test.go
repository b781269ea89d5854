package cryptobox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "8d855edef453ed6d7ee03d096de91d88345c604347da8f7fd81ed6d4b7b0009b"

func TestNewRejectsBadKeys(t *testing.T) {
	req := require.New(t)

	_, err := New("not-hex")
	req.Error(err)

	_, err = New("abcd")
	req.Error(err)

	_, err = New(testKey)
	req.NoError(err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	req := require.New(t)
	box, err := New(testKey)
	req.NoError(err)

	for _, plaintext := range []string{"", "hey", "héllo wörld", strings.Repeat("x", 4096)} {
		ciphertext, err := box.Encrypt(plaintext)
		req.NoError(err)
		req.NotEqual(plaintext, ciphertext)

		recovered, ok := box.Decrypt(ciphertext)
		req.True(ok)
		req.Equal(plaintext, recovered)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	req := require.New(t)
	box, err := New(testKey)
	req.NoError(err)

	first, err := box.Encrypt("same plaintext")
	req.NoError(err)
	second, err := box.Encrypt("same plaintext")
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestDecryptFailsSoft(t *testing.T) {
	req := require.New(t)
	box, err := New(testKey)
	req.NoError(err)

	for _, corrupted := range []string{"", "not base64 !!!", "YWJjZA==", "YQ=="} {
		plain, ok := box.Decrypt(corrupted)
		req.False(ok)
		req.Equal(DecryptFailurePlaceholder, plain)
	}

	// Tampered but well-formed ciphertext must also fail soft.
	ciphertext, err := box.Encrypt("legit message")
	req.NoError(err)
	tampered := "A" + ciphertext[1:]
	if tampered == ciphertext {
		tampered = "B" + ciphertext[1:]
	}
	plain, ok := box.Decrypt(tampered)
	req.False(ok)
	req.Equal(DecryptFailurePlaceholder, plain)
}
