package krypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestNewAESGCM(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr bool
	}{
		{name: "AES-128", key: bytes.Repeat([]byte("a"), 16)},
		{name: "AES-192", key: bytes.Repeat([]byte("a"), 24)},
		{name: "AES-256", key: bytes.Repeat([]byte("a"), 32)},
		{name: "invalid key size", key: []byte("too-short"), wantErr: true},
		{name: "empty key", key: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAESGCM(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeySize) {
					t.Errorf("NewAESGCM() error = %v, want ErrInvalidKeySize", err)
				}
				return
			}
			if err != nil || c == nil {
				t.Errorf("NewAESGCM() = %v, %v", c, err)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	c, err := NewAESGCM(bytes.Repeat([]byte("k"), 32))
	if err != nil {
		t.Fatal(err)
	}

	for _, data := range [][]byte{[]byte("hello world"), {}, {0xFF, 0x00, 0xFE, 0x01}} {
		ciphertext, nonce, err := c.Encrypt(data)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		got, err := c.Decrypt(ciphertext, nonce)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Decrypt() = %v, want %v", got, data)
		}
	}
}

func TestSealOpenString(t *testing.T) {
	c, err := NewAESGCM(bytes.Repeat([]byte("k"), 32))
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.SealString("abc123")
	if err != nil {
		t.Fatalf("SealString() error = %v", err)
	}
	if strings.Contains(sealed, "abc123") {
		t.Error("sealed value leaks the plaintext")
	}

	again, _ := c.SealString("abc123")
	if again == sealed {
		t.Error("two seals of the same value are identical; nonce not random")
	}

	got, err := c.OpenString(sealed)
	if err != nil || got != "abc123" {
		t.Errorf("OpenString() = %q, %v", got, err)
	}
}

func TestOpenStringFailures(t *testing.T) {
	c, _ := NewAESGCM(bytes.Repeat([]byte("k"), 32))
	other, _ := NewAESGCM(bytes.Repeat([]byte("o"), 32))
	sealed, _ := c.SealString("abc123")

	if _, err := c.OpenString("not base64!"); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad base64: %v", err)
	}
	if _, err := c.OpenString(base64.StdEncoding.EncodeToString([]byte("short"))); !errors.Is(err, ErrMalformed) {
		t.Errorf("short input: %v", err)
	}
	if _, err := other.OpenString(sealed); err == nil {
		t.Error("OpenString() with the wrong key succeeded")
	}

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0x01
	if _, err := c.OpenString(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Error("OpenString() accepted tampered ciphertext")
	}
}

func TestGenerateAESKey(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		key, err := GenerateAESKey(size)
		if err != nil {
			t.Fatalf("GenerateAESKey(%d) error = %v", size, err)
		}
		raw, err := base64.StdEncoding.DecodeString(key)
		if err != nil || len(raw) != size {
			t.Errorf("GenerateAESKey(%d) decoded to %d bytes, %v", size, len(raw), err)
		}
	}
	if _, err := GenerateAESKey(20); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("GenerateAESKey(20) error = %v", err)
	}
}
