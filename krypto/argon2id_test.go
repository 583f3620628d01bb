package krypto_test

import (
	"bytes"
	"testing"

	"github.com/gobeaver/streamurl/krypto"
)

func TestDeriveKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1 := krypto.DeriveKey("correct horse", salt)
	k2 := krypto.DeriveKey("correct horse", salt)
	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey is not deterministic")
	}

	if bytes.Equal(k1, krypto.DeriveKey("wrong horse", salt)) {
		t.Error("different passphrases produced the same key")
	}
	if bytes.Equal(k1, krypto.DeriveKey("correct horse", []byte("fedcba9876543210"))) {
		t.Error("different salts produced the same key")
	}

	if _, err := krypto.NewAESGCM(k1); err != nil {
		t.Errorf("derived key rejected by NewAESGCM: %v", err)
	}
}
