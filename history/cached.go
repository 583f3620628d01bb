package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/gobeaver/streamurl/cache"
	"github.com/gobeaver/streamurl/streamurl"
)

// Cached serves LastConfig, List and Inputs from a cache and invalidates
// a direction's entries on every write to it. Cache failures are logged
// and the call falls through to the wrapped repository.
//
// Secret keys are sealed with the configured Sealer before they are
// written to the cache, the same way Store seals them on disk.
type Cached struct {
	repo   Repository
	cache  cache.Cache
	ttl    time.Duration
	log    logr.Logger
	sealer Sealer
}

// CachedOption configures a Cached repository.
type CachedOption func(*Cached)

// WithCacheSealer seals secret keys in cached entries.
func WithCacheSealer(s Sealer) CachedOption {
	return func(c *Cached) { c.sealer = s }
}

// NewCached wraps repo. A zero ttl uses the cache driver's default.
func NewCached(repo Repository, c cache.Cache, ttl time.Duration, log logr.Logger, opts ...CachedOption) *Cached {
	cc := &Cached{repo: repo, cache: c, ttl: ttl, log: log.WithName("history-cache")}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

func cacheKey(dir streamurl.Direction, what string) string {
	return "history:" + string(dir) + ":" + what
}

// lookup returns the cached value under key, or calls load and caches its
// result. secrets maps every secret key held by a T through f into a copy,
// and is used to seal on the way in and open on the way out.
func lookup[T any](ctx context.Context, c *Cached, key string,
	secrets func(v T, f func(string) (string, error)) (T, error),
	load func() (T, error),
) (T, error) {
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			if v, err = secrets(v, c.openSecret); err == nil {
				return v, nil
			}
		}
		c.log.Info("discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrKeyNotFound) && !errors.Is(err, cache.ErrCircuitOpen) {
		c.log.Error(err, "cache read failed", "key", key)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	sealed, err := secrets(v, c.sealSecret)
	if err != nil {
		c.log.Error(err, "not caching entry", "key", key)
		return v, nil
	}
	if raw, err := json.Marshal(sealed); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil && !errors.Is(err, cache.ErrCircuitOpen) {
			c.log.Error(err, "cache write failed", "key", key)
		}
	}
	return v, nil
}

func (c *Cached) sealSecret(v string) (string, error) { return sealSecret(c.sealer, v) }
func (c *Cached) openSecret(v string) (string, error) { return openSecret(c.sealer, v) }

func configSecrets(cfg *streamurl.Config, f func(string) (string, error)) (*streamurl.Config, error) {
	if cfg == nil {
		return nil, nil
	}
	out := *cfg
	var err error
	if out.SecretKey, err = f(out.SecretKey); err != nil {
		return nil, err
	}
	return &out, nil
}

func recordSecrets(recs []Record, f func(string) (string, error)) ([]Record, error) {
	if recs == nil {
		return nil, nil
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	for i := range out {
		key, err := f(out[i].Config.SecretKey)
		if err != nil {
			return nil, err
		}
		out[i].Config.SecretKey = key
	}
	return out, nil
}

func inputSecrets(in *Inputs, f func(string) (string, error)) (*Inputs, error) {
	if in == nil {
		return nil, nil
	}
	out := *in
	out.Keys = make([]string, len(in.Keys))
	for i, k := range in.Keys {
		v, err := f(k)
		if err != nil {
			return nil, err
		}
		out.Keys[i] = v
	}
	return &out, nil
}

func (c *Cached) invalidate(ctx context.Context, dir streamurl.Direction, what ...string) {
	keys := make([]string, len(what))
	for i, w := range what {
		keys[i] = cacheKey(dir, w)
	}
	if err := c.cache.Delete(ctx, keys...); err != nil && !errors.Is(err, cache.ErrCircuitOpen) {
		c.log.Error(err, "cache invalidation failed", "direction", dir)
	}
}

func (c *Cached) SaveConfig(ctx context.Context, dir streamurl.Direction, cfg streamurl.Config) error {
	if err := c.repo.SaveConfig(ctx, dir, cfg); err != nil {
		return err
	}
	c.invalidate(ctx, dir, "config")
	return nil
}

func (c *Cached) LastConfig(ctx context.Context, dir streamurl.Direction) (*streamurl.Config, error) {
	return lookup(ctx, c, cacheKey(dir, "config"), configSecrets, func() (*streamurl.Config, error) {
		return c.repo.LastConfig(ctx, dir)
	})
}

func (c *Cached) Add(ctx context.Context, rec Record) error {
	if err := c.repo.Add(ctx, rec); err != nil {
		return err
	}
	c.invalidate(ctx, rec.Direction, "list", "inputs")
	return nil
}

func (c *Cached) List(ctx context.Context, dir streamurl.Direction) ([]Record, error) {
	return lookup(ctx, c, cacheKey(dir, "list"), recordSecrets, func() ([]Record, error) {
		return c.repo.List(ctx, dir)
	})
}

// Get is not cached.
func (c *Cached) Get(ctx context.Context, dir streamurl.Direction, id string) (*Record, error) {
	return c.repo.Get(ctx, dir, id)
}

func (c *Cached) Delete(ctx context.Context, dir streamurl.Direction, id string) error {
	err := c.repo.Delete(ctx, dir, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		c.invalidate(ctx, dir, "list", "inputs")
	}
	return err
}

func (c *Cached) Clear(ctx context.Context, dir streamurl.Direction) error {
	if err := c.repo.Clear(ctx, dir); err != nil {
		return err
	}
	c.invalidate(ctx, dir, "list", "inputs")
	return nil
}

func (c *Cached) Inputs(ctx context.Context, dir streamurl.Direction) (*Inputs, error) {
	return lookup(ctx, c, cacheKey(dir, "inputs"), inputSecrets, func() (*Inputs, error) {
		return c.repo.Inputs(ctx, dir)
	})
}
