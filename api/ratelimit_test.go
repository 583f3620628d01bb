package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBucket(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter(60, 3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := l.allow("10.0.0.1")
		assert.True(t, ok, "request %d within burst", i)
	}
	ok, wait := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok, "clients have separate buckets")

	now = now.Add(1500 * time.Millisecond)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok, "one token refilled")
	ok, _ = l.allow("10.0.0.1")
	assert.False(t, ok)
}

func TestRateLimiterEviction(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter(60, 1)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(time.Minute)
	l.evictFullLocked(now)
	assert.Empty(t, l.buckets)
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.RateLimitPerMinute = 60
		o.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		resp, _ := do(t, srv, http.MethodPost, "/api/stream/validate", authBody)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := do(t, srv, http.MethodPost, "/api/stream/validate", authBody)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "only /api is limited")
}
