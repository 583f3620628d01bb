// Package filekit stores history exports on the local disk or in an S3
// bucket behind one small interface.
package filekit

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotExist      = errors.New("file does not exist")
	ErrNotAllowed    = errors.New("path outside the storage root")
	ErrInvalidDriver = errors.New("invalid filekit driver")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string { return e.Op + " " + e.Path + ": " + e.Err.Error() }

func (e *PathError) Unwrap() error { return e.Err }

// File represents a file in the filesystem
type File struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
	ContentType string    `json:"contentType,omitempty"`
}

// FileSystem defines the file operations the exporter needs. Paths are
// slash separated and relative to the driver's root or prefix.
type FileSystem interface {
	Upload(ctx context.Context, path string, content io.Reader, options ...Option) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the files directly under prefix. A missing prefix
	// yields an empty list.
	List(ctx context.Context, prefix string) ([]File, error)
}

// Options are per-upload settings.
type Options struct {
	ContentType string
	Metadata    map[string]string
}

// Option configures an upload.
type Option func(*Options)

func WithContentType(ct string) Option {
	return func(o *Options) { o.ContentType = ct }
}

func WithMetadata(md map[string]string) Option {
	return func(o *Options) { o.Metadata = md }
}

func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
