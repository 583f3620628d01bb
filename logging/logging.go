// Package logging builds the logr.Logger shared by every component.
// Records are rendered by a log/slog handler; file output is rotated by
// lumberjack.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gobeaver/streamurl/config"
)

const (
	TextFormat = "text"
	JSONFormat = "json"
)

var ErrUnknownFormat = errors.New("unrecognised logging format")

// Config controls verbosity, rendering and the optional rotating log file.
type Config struct {
	Verbosity  int    `env:"LOG_VERBOSITY,default:0"`
	Format     string `env:"LOG_FORMAT,default:text"`
	File       string `env:"LOG_FILE"` // empty logs to stderr
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB,default:50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS,default:5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS,default:28"`
	Compress   bool   `env:"LOG_COMPRESS,default:true"`
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AddFlags registers flags that override the environment once parsed.
func AddFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.IntVarP(&cfg.Verbosity, "v", "v", cfg.Verbosity, "Logging verbosity")
	flags.StringVar(&cfg.Format, "log-format", cfg.Format, "Logging format: text or json")
	flags.StringVar(&cfg.File, "log-file", cfg.File, "Write logs to a rotated file instead of stderr")
}

// New returns a logger and a closer for its output. The closer is a no-op
// unless a log file is configured.
func New(cfg Config) (logr.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out, closer = rotated, rotated
	}

	logger, err := NewWithWriter(cfg, out)
	if err != nil {
		return logr.Discard(), nil, err
	}
	return logger, closer, nil
}

// NewWithWriter renders to w.
func NewWithWriter(cfg Config, w io.Writer) (logr.Logger, error) {
	opts := &slog.HandlerOptions{Level: toSlogLevel(cfg.Verbosity)}

	var h slog.Handler
	switch cfg.Format {
	case "", TextFormat:
		h = slog.NewTextHandler(w, opts)
	case JSONFormat:
		h = slog.NewJSONHandler(w, opts)
	default:
		return logr.Discard(), fmt.Errorf("%w: %s", ErrUnknownFormat, cfg.Format)
	}
	return logr.FromSlogHandler(h), nil
}

// toSlogLevel converts a logr v-level to a slog level.
func toSlogLevel(verbosity int) slog.Level {
	if verbosity <= 0 {
		return slog.LevelInfo
	}
	return slog.Level(-4 - (verbosity - 1))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
