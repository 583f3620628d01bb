package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type item struct {
	value      []byte
	expiration int64
}

func (i *item) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// MemoryCache is a map guarded by a RWMutex with lazy and periodic expiry.
type MemoryCache struct {
	mu          sync.RWMutex
	items       map[string]*item
	maxKeys     int
	defaultTTL  time.Duration
	keyPrefix   string
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// NewMemory creates a memory cache and starts its cleanup goroutine.
func NewMemory(cfg Config) *MemoryCache {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}

	mc := &MemoryCache{
		items:       make(map[string]*item),
		maxKeys:     cfg.MaxKeys,
		defaultTTL:  cfg.DefaultTTL,
		keyPrefix:   cfg.KeyPrefix,
		stopCleanup: make(chan struct{}),
	}
	go mc.cleanupExpired(interval)
	return mc
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	it, ok := mc.items[mc.keyPrefix+key]
	if !ok || it.expired(time.Now().UnixNano()) {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	if mc.maxKeys > 0 && len(mc.items) >= mc.maxKeys {
		if _, exists := mc.items[fullKey]; !exists {
			mc.removeExpiredLocked()
			if len(mc.items) >= mc.maxKeys {
				return ErrLimitReached
			}
		}
	}

	if ttl == 0 {
		ttl = mc.defaultTTL
	}
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	mc.items[fullKey] = &item{value: stored, expiration: expiration}
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.items, mc.keyPrefix+key)
	}
	return nil
}

func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	it, ok := mc.items[mc.keyPrefix+key]
	return ok && !it.expired(time.Now().UnixNano()), nil
}

func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key := range mc.items {
		if strings.HasPrefix(key, mc.keyPrefix) {
			delete(mc.items, key)
		}
	}
	return nil
}

// Ping always succeeds.
func (mc *MemoryCache) Ping(ctx context.Context) error { return nil }

// Close stops the cleanup goroutine. It is safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stopCleanup) })
	return nil
}

// Len returns the number of stored keys, expired ones included until the
// next sweep.
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.items)
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			mc.removeExpiredLocked()
			mc.mu.Unlock()
		case <-mc.stopCleanup:
			return
		}
	}
}

func (mc *MemoryCache) removeExpiredLocked() {
	now := time.Now().UnixNano()
	for key, it := range mc.items {
		if it.expired(now) {
			delete(mc.items, key)
		}
	}
}
