// Package cache provides the read-through cache behind saved
// configurations and history lists. Two drivers are available: an
// in-process map and Redis.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gobeaver/streamurl/config"
)

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid cache driver")
	ErrKeyNotFound   = errors.New("key not found")
	ErrLimitReached  = errors.New("cache limit reached")
)

// Cache defines the interface for cache implementations
type Cache interface {
	// Get retrieves a value by key; ErrKeyNotFound on a miss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; ttl 0 uses the driver default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys, missing keys are ignored
	Delete(ctx context.Context, keys ...string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes all keys under the configured prefix
	Clear(ctx context.Context) error

	// Ping checks if cache is reachable
	Ping(ctx context.Context) error

	Close() error
}

// Config holds cache configuration
type Config struct {
	// Driver specifies cache backend: "memory", "redis" or "none"
	Driver string `env:"CACHE_DRIVER,default:memory"`

	// Redis specific settings
	Host     string `env:"CACHE_HOST,default:localhost"`
	Port     string `env:"CACHE_PORT,default:6379"`
	Password string `env:"CACHE_PASSWORD"`
	Database int    `env:"CACHE_DATABASE,default:0"`
	URL      string `env:"CACHE_URL"` // overrides host/port/password
	PoolSize int    `env:"CACHE_POOL_SIZE,default:10"`
	UseTLS   bool   `env:"CACHE_USE_TLS,default:false"`

	// Memory cache specific
	MaxKeys         int           `env:"CACHE_MAX_KEYS,default:10000"`
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL,default:1m"`

	DefaultTTL time.Duration `env:"CACHE_TTL,default:5m"`
	KeyPrefix  string        `env:"CACHE_KEY_PREFIX,default:streamurl:"`
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	cfg.Driver = strings.ToLower(cfg.Driver)
	return cfg, nil
}

// New creates a cache for the configured driver. Driver "none" returns
// nil, nil: callers skip caching.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(cfg), nil
	case "redis":
		return NewRedis(ctx, cfg)
	case "none":
		return nil, nil
	}
	return nil, ErrInvalidDriver
}
