package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// vaultCipher encrypts Relational-namespace values at rest.
//
// The key is the SHA-256 digest of the configured secret. Values are sealed
// with AES-256-GCM and a random 12-byte nonce persisted as the blob prefix,
// so every read path can decrypt transparently and tampering is detected
// rather than decoded into garbage.
type vaultCipher struct {
	aead cipher.AEAD
}

func newVaultCipher(secret string) (*vaultCipher, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("vault cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault cipher gcm: %w", err)
	}
	return &vaultCipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce || ciphertext.
func (c *vaultCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce || ciphertext blob. Truncated or tampered input
// yields ErrDecryption, never partially decoded bytes.
func (c *vaultCipher) Open(blob []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(blob) < ns {
		return nil, fmt.Errorf("ciphertext shorter than nonce: %w", ErrDecryption)
	}
	plaintext, err := c.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", ErrDecryption)
	}
	return plaintext, nil
}
