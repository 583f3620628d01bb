package filekit

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseFileSystem(t *testing.T, fs FileSystem) {
	t.Helper()
	ctx := context.Background()

	files, err := fs.List(ctx, "publish")
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, fs.Upload(ctx, "publish/b.json", strings.NewReader(`{"b":1}`), WithContentType("application/json")))
	require.NoError(t, fs.Upload(ctx, "publish/a.json", strings.NewReader(`{"a":1}`)))
	require.NoError(t, fs.Upload(ctx, "playback/c.json", strings.NewReader(`{"c":1}`)))

	ok, err := fs.Exists(ctx, "publish/a.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(ctx, "publish/missing.json")
	require.NoError(t, err)
	assert.False(t, ok)

	rc, err := fs.Download(ctx, "publish/a.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, `{"a":1}`, string(body))

	files, err = fs.List(ctx, "publish")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.json", files[0].Name)
	assert.Equal(t, "publish/a.json", files[0].Path)
	assert.Equal(t, "b.json", files[1].Name)
	assert.Equal(t, "application/json", files[0].ContentType)

	_, err = fs.Download(ctx, "publish/missing.json")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, fs.Delete(ctx, "publish/a.json"))
	ok, _ = fs.Exists(ctx, "publish/a.json")
	assert.False(t, ok)
}

func TestLocal(t *testing.T) {
	fs, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	exerciseFileSystem(t, fs)
}

func TestLocalRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	fs, err := NewLocal(filepath.Join(root, "exports"))
	require.NoError(t, err)

	err = fs.Upload(context.Background(), "../outside.json", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, statErr := os.Stat(filepath.Join(root, "outside.json"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = fs.Download(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestLocalFilesArePrivate(t *testing.T) {
	root := t.TempDir()
	fs, err := NewLocal(root)
	require.NoError(t, err)
	require.NoError(t, fs.Upload(context.Background(), "x.json", strings.NewReader("{}")))

	info, err := os.Stat(filepath.Join(root, "x.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEncryptedFS(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	enc, err := NewEncryptedFS(local, "export passphrase")
	require.NoError(t, err)

	exerciseFileSystem(t, enc)

	ctx := context.Background()
	require.NoError(t, enc.Upload(ctx, "secret.json", strings.NewReader(`{"key":"abc123"}`)))

	raw, err := local.Download(ctx, "secret.json")
	require.NoError(t, err)
	stored, _ := io.ReadAll(raw)
	raw.Close()
	assert.NotContains(t, string(stored), "abc123")

	again, err := NewEncryptedFS(local, "export passphrase")
	require.NoError(t, err)
	rc, err := again.Download(ctx, "secret.json")
	require.NoError(t, err)
	plain, _ := io.ReadAll(rc)
	assert.Equal(t, `{"key":"abc123"}`, string(plain))

	wrong, err := NewEncryptedFS(local, "another passphrase")
	require.NoError(t, err)
	_, err = wrong.Download(ctx, "secret.json")
	assert.Error(t, err)
}

func TestNewDrivers(t *testing.T) {
	fs, err := New(context.Background(), Config{Driver: "local", LocalBasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, fs)

	fs, err = New(context.Background(), Config{LocalBasePath: t.TempDir(), EncryptionKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &EncryptedFS{}, fs)

	_, err = New(context.Background(), Config{Driver: "gcs"})
	assert.ErrorIs(t, err, ErrInvalidDriver)

	_, err = New(context.Background(), Config{Driver: "s3"})
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

// fakeS3 implements just enough of the S3 REST API for path-style
// PutObject, GetObject, HeadObject, DeleteObject and ListObjectsV2.
type fakeS3 struct {
	bucket string
	mu     sync.Mutex
	objs   map[string][]byte
}

type listResult struct {
	XMLName     xml.Name     `xml:"ListBucketResult"`
	Name        string       `xml:"Name"`
	Prefix      string       `xml:"Prefix"`
	KeyCount    int          `xml:"KeyCount"`
	IsTruncated bool         `xml:"IsTruncated"`
	Contents    []listObject `xml:"Contents"`
}

type listObject struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	Size         int64  `xml:"Size"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, "/")
	if p == f.bucket || p == f.bucket+"/" {
		f.list(w, r.URL.Query().Get("prefix"))
		return
	}
	key := strings.TrimPrefix(p, f.bucket+"/")

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objs[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objs[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(body)
		}
	case http.MethodDelete:
		delete(f.objs, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	res := listResult{Name: f.bucket, Prefix: prefix}
	var keys []string
	for k := range f.objs {
		if strings.HasPrefix(k, prefix) && !strings.Contains(strings.TrimPrefix(k, prefix), "/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		res.Contents = append(res.Contents, listObject{
			Key:          k,
			LastModified: "2026-10-19T00:00:00.000Z",
			Size:         int64(len(f.objs[k])),
		})
	}
	res.KeyCount = len(res.Contents)

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, xml.Header)
	xml.NewEncoder(w).Encode(res)
}

func TestS3(t *testing.T) {
	fake := &fakeS3{bucket: "exports", objs: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	fs, err := NewS3(context.Background(), Config{
		S3Region:          "us-east-1",
		S3Bucket:          "exports",
		S3Prefix:          "/streamurl/",
		S3Endpoint:        srv.URL,
		S3AccessKeyID:     "test",
		S3SecretAccessKey: "test",
		S3ForcePathStyle:  true,
	})
	require.NoError(t, err)

	exerciseFileSystem(t, fs)

	fake.mu.Lock()
	_, ok := fake.objs["streamurl/publish/b.json"]
	fake.mu.Unlock()
	assert.True(t, ok, "object not stored under the configured prefix")
}

func TestPathError(t *testing.T) {
	err := error(&PathError{Op: "download", Path: "a.json", Err: ErrNotExist})
	assert.True(t, errors.Is(err, ErrNotExist))
	assert.Equal(t, "download a.json: file does not exist", err.Error())
}
