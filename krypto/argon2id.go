package krypto

import (
	"golang.org/x/crypto/argon2"
)

const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 4
	keyLength   = 32
)

// DeriveKey stretches a passphrase into a 32-byte AES-256 key with
// Argon2id. The same passphrase and salt always yield the same key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, iterations, memory, parallelism, keyLength)
}
