// Package crypto seals sensitive profile fields before they are stored.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iho/gobank/internal/domain"
)

// ErrMalformedCiphertext is returned when a sealed value cannot be decoded or authenticated.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// FieldCipher encrypts strings with XChaCha20-Poly1305. Output is
// base64(nonce || ciphertext).
type FieldCipher struct {
	key []byte
}

// NewFieldCipher accepts a 32-byte key, either raw or hex encoded.
func NewFieldCipher(key string) (*FieldCipher, error) {
	raw := []byte(key)
	if len(key) == 2*chacha20poly1305.KeySize {
		decoded, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex", domain.ErrEncryptionKeyLength)
		}
		raw = decoded
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", domain.ErrEncryptionKeyLength, len(raw), chacha20poly1305.KeySize)
	}
	return &FieldCipher{key: raw}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (c *FieldCipher) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (c *FieldCipher) Open(sealed string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(data) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plaintext), nil
}
