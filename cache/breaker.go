package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the backend while the
// breaker is open.
var ErrCircuitOpen = errors.New("cache circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "closed"
}

// Breaker wraps a Cache so that a backend which keeps failing is skipped
// for a cooldown instead of adding its timeout to every request. After
// maxFailures consecutive failures the circuit opens; after cooldown a
// single probe is let through and its outcome closes or reopens it.
//
// Misses and a full memory cache are answers, not failures.
type Breaker struct {
	Cache

	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker wraps c. maxFailures below 1 is treated as 1.
func NewBreaker(c Cache, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{Cache: c, maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = CircuitHalfOpen
		b.probing = true
	case CircuitHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil || errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrLimitReached) ||
		errors.Is(err, context.Canceled) {
		b.state = CircuitClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == CircuitHalfOpen || b.failures >= b.maxFailures {
		b.state = CircuitOpen
		b.openedAt = b.now()
	}
}

func (b *Breaker) do(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.do(func() error {
		var err error
		out, err = b.Cache.Get(ctx, key)
		return err
	})
	return out, err
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.do(func() error { return b.Cache.Set(ctx, key, value, ttl) })
}

func (b *Breaker) Delete(ctx context.Context, keys ...string) error {
	return b.do(func() error { return b.Cache.Delete(ctx, keys...) })
}

func (b *Breaker) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := b.do(func() error {
		var err error
		ok, err = b.Cache.Exists(ctx, key)
		return err
	})
	return ok, err
}

func (b *Breaker) Clear(ctx context.Context) error {
	return b.do(func() error { return b.Cache.Clear(ctx) })
}

// Ping always reaches the backend. A successful ping ends an open
// circuit's cooldown early.
func (b *Breaker) Ping(ctx context.Context) error {
	err := b.Cache.Ping(ctx)
	b.mu.Lock()
	if err == nil && b.state == CircuitOpen {
		b.openedAt = time.Time{}
	}
	b.mu.Unlock()
	return err
}
