package krypto

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken returns length random bytes, hex encoded. Used for
// freshly minted stream secret keys.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
