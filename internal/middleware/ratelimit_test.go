package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Buckets are per client.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterConcurrentFirstRequestsShareBucket(t *testing.T) {
	rl := NewRateLimiter(1, 5)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("10.0.0.9") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

func TestRateLimiterActiveClientKeepsBucket(t *testing.T) {
	rl := newRateLimiter(1, 1, 200*time.Millisecond)

	assert.True(t, rl.Allow("10.0.0.3"))
	time.Sleep(120 * time.Millisecond)
	assert.False(t, rl.Allow("10.0.0.3"))

	// Past the idle TTL from the first request but not from the last one.
	time.Sleep(120 * time.Millisecond)
	assert.False(t, rl.Allow("10.0.0.3"), "an active client must not get a fresh burst")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	r := newRouter(rl.Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
