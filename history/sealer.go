package history

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/gobeaver/streamurl/krypto"
)

const sealedPrefix = "enc:v1:"

// Sealer encrypts secret keys before they are written to storage.
type Sealer interface {
	SealString(plaintext string) (string, error)
	OpenString(sealed string) (string, error)
}

// NewSecretSealer returns an AES-256-GCM sealer keyed by Argon2id over
// passphrase.
func NewSecretSealer(passphrase string) (Sealer, error) {
	salt := sha256.Sum256([]byte("streamurl-secrets:" + passphrase))
	return krypto.NewAESGCM(krypto.DeriveKey(passphrase, salt[:16]))
}

// sealSecret leaves empty values and a nil sealer alone.
func sealSecret(s Sealer, v string) (string, error) {
	if s == nil || v == "" {
		return v, nil
	}
	out, err := s.SealString(v)
	if err != nil {
		return "", fmt.Errorf("seal secret: %w", err)
	}
	return sealedPrefix + out, nil
}

// openSecret accepts both sealed and clear-text values, so sealing can be
// enabled on an existing database.
func openSecret(s Sealer, v string) (string, error) {
	if !strings.HasPrefix(v, sealedPrefix) {
		return v, nil
	}
	if s == nil {
		return "", ErrSealed
	}
	out, err := s.OpenString(strings.TrimPrefix(v, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("open secret: %w", err)
	}
	return out, nil
}
