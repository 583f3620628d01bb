package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// bucket is a token bucket refilled at rate tokens per second.
type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	rate     float64
	capacity float64
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

const maxTrackedClients = 10000

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		rate:     float64(perMinute) / 60,
		capacity: float64(burst),
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

// allow takes a token for key. When none is left it returns false and how
// long until one is available.
func (l *rateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxTrackedClients {
			l.evictFullLocked(now)
		}
		b = &bucket{tokens: l.capacity, lastCheck: now}
		l.buckets[key] = b
	}

	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.lastCheck).Seconds()*l.rate)
	b.lastCheck = now
	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
		return false, wait
	}
	b.tokens--
	return true, 0
}

// evictFullLocked forgets clients whose bucket has refilled; they are
// indistinguishable from new ones.
func (l *rateLimiter) evictFullLocked(now time.Time) {
	for k, b := range l.buckets {
		if b.tokens+now.Sub(b.lastCheck).Seconds()*l.rate >= l.capacity {
			delete(l.buckets, k)
		}
	}
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if ok, wait := l.allow(ip); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
