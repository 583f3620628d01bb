// Package krypto holds the cryptographic helpers behind the service:
// AES-GCM sealing of stored stream secrets, Argon2id key derivation from an
// operator passphrase, random secret generation and the HS256 bearer tokens
// accepted by the HTTP API.
//
//	key := krypto.DeriveKey(passphrase, salt)
//	c, err := krypto.NewAESGCM(key)
//	sealed, err := c.SealString("abc123")
//
// The txSecret digest itself lives in package streamurl; it is not a MAC and
// is not implemented here.
package krypto
