package filekit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"strings"

	"github.com/gobeaver/streamurl/krypto"
)

// EncryptedFS seals whole files with AES-GCM before they reach the
// underlying FileSystem. Files are buffered in memory, which suits the
// small JSON exports it stores.
type EncryptedFS struct {
	fs     FileSystem
	cipher *krypto.Cipher
}

// NewEncryptedFS derives an AES-256 key from passphrase with Argon2id.
// The salt is fixed per passphrase so that exports stay readable across
// restarts.
func NewEncryptedFS(fs FileSystem, passphrase string) (*EncryptedFS, error) {
	salt := sha256.Sum256([]byte("streamurl-export:" + passphrase))
	c, err := krypto.NewAESGCM(krypto.DeriveKey(passphrase, salt[:16]))
	if err != nil {
		return nil, err
	}
	return &EncryptedFS{fs: fs, cipher: c}, nil
}

func (e *EncryptedFS) Upload(ctx context.Context, path string, content io.Reader, options ...Option) error {
	plain, err := io.ReadAll(content)
	if err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	sealed, err := e.cipher.SealString(string(plain))
	if err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}

	opts := processOptions(options...)
	md := map[string]string{"encrypted": "aes-256-gcm"}
	for k, v := range opts.Metadata {
		md[k] = v
	}
	return e.fs.Upload(ctx, path, strings.NewReader(sealed),
		WithContentType("application/octet-stream"), WithMetadata(md))
}

func (e *EncryptedFS) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := e.fs.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, &PathError{Op: "download", Path: path, Err: err}
	}
	plain, err := e.cipher.OpenString(string(sealed))
	if err != nil {
		return nil, &PathError{Op: "download", Path: path, Err: err}
	}
	return io.NopCloser(bytes.NewReader([]byte(plain))), nil
}

func (e *EncryptedFS) Delete(ctx context.Context, path string) error {
	return e.fs.Delete(ctx, path)
}

func (e *EncryptedFS) Exists(ctx context.Context, path string) (bool, error) {
	return e.fs.Exists(ctx, path)
}

func (e *EncryptedFS) List(ctx context.Context, prefix string) ([]File, error) {
	return e.fs.List(ctx, prefix)
}
