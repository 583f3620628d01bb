package filekit

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local stores files under a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: absRoot}, nil
}

func (l *Local) resolve(op, path string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(path))
	if !isPathUnderRoot(l.root, full) {
		return "", &PathError{Op: op, Path: path, Err: ErrNotAllowed}
	}
	return full, nil
}

func (l *Local) Upload(ctx context.Context, path string, content io.Reader, options ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.resolve("upload", path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return &PathError{Op: "upload", Path: path, Err: err}
	}
	return nil
}

func (l *Local) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.resolve("download", path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "download", Path: path, Err: ErrNotExist}
		}
		return nil, &PathError{Op: "download", Path: path, Err: err}
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.resolve("delete", path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return &PathError{Op: "delete", Path: path, Err: ErrNotExist}
		}
		return &PathError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	full, err := l.resolve("exists", path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PathError{Op: "exists", Path: path, Err: err}
	}
	return true, nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.resolve("list", prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if os.IsNotExist(err) {
		return []File{}, nil
	}
	if err != nil {
		return nil, &PathError{Op: "list", Path: prefix, Err: err}
	}

	files := []File{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Name:        e.Name(),
			Path:        strings.TrimPrefix(filepath.ToSlash(filepath.Join(prefix, e.Name())), "/"),
			Size:        info.Size(),
			ModTime:     info.ModTime().UTC(),
			ContentType: mime.TypeByExtension(filepath.Ext(e.Name())),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// isPathUnderRoot checks if a path is under a given root directory
func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
