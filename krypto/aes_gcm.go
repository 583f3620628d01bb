package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size: must be 16, 24, or 32 bytes")
	ErrMalformed      = errors.New("malformed sealed value")
)

// Cipher seals short secrets with AES-GCM. The sealed form is
// base64(nonce || ciphertext) so it fits in a single text column.
type Cipher struct {
	gcm cipher.AEAD
}

// NewAESGCM creates a Cipher. The key must be 16, 24 or 32 bytes.
func NewAESGCM(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt encrypts data under a fresh random nonce.
func (c *Cipher) Encrypt(data []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.gcm.Seal(nil, nonce, data, nil), nonce, nil
}

// Decrypt decrypts byte data using AES-GCM
func (c *Cipher) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// SealString encrypts plaintext and returns the base64 sealed form.
func (c *Cipher) SealString(plaintext string) (string, error) {
	ciphertext, nonce, err := c.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

// OpenString reverses SealString.
func (c *Cipher) OpenString(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := c.gcm.NonceSize()
	if len(raw) < ns+c.gcm.Overhead() {
		return "", fmt.Errorf("%w: %d bytes", ErrMalformed, len(raw))
	}

	plaintext, err := c.Decrypt(raw[ns:], raw[:ns])
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateAESKey returns a random key of keySize bytes, base64 encoded.
func GenerateAESKey(keySize int) (string, error) {
	if keySize != 16 && keySize != 24 && keySize != 32 {
		return "", ErrInvalidKeySize
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
