// Package cryptobox provides at-rest encryption for message bodies.
//
// A single process-wide AES-256-GCM key protects every message. This is not
// end-to-end encryption and is not keyed per conversation; compromise of the
// process secret exposes all stored bodies.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DecryptFailurePlaceholder replaces a body whose ciphertext cannot be
// recovered, so one corrupted row never hides an entire conversation.
const DecryptFailurePlaceholder = "Error decrypting message"

// Box encrypts and decrypts with a fixed symmetric key.
type Box struct {
	aead cipher.AEAD
}

// New builds a Box from a 64-char hex encoding of a 32-byte key.
func New(hexKey string) (*Box, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh random nonce, so two calls on the
// same input produce different ciphertexts. The nonce is prepended and the
// whole blob is base64 encoded for storage as a string.
func (b *Box) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers the plaintext from an Encrypt output. It fails soft:
// any malformed or tampered input yields the placeholder string and ok=false
// instead of an error, matching the per-message isolation of history reads.
func (b *Box) Decrypt(ciphertext string) (plaintext string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return DecryptFailurePlaceholder, false
	}

	nonceSize := b.aead.NonceSize()
	if len(raw) < nonceSize {
		return DecryptFailurePlaceholder, false
	}

	opened, err := b.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return DecryptFailurePlaceholder, false
	}
	return string(opened), true
}
