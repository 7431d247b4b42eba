package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-client limiter table.
const maxTrackedClients = 10000

// idleClientTTL is how long a client's bucket survives without requests.
const idleClientTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client IP. A bucket is dropped
// only after idleClientTTL without requests, so the table stays bounded.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows perMinute requests per client with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return newRateLimiter(perMinute, burst, idleClientTTL)
}

func newRateLimiter(perMinute, burst int, idleTTL time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, idleTTL),
	}
}

// Allow reports whether the client may make a request now.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.limiter(client).Allow()
}

// limiter returns the client's bucket, creating it on first use. Re-adding
// an existing bucket pushes its expiry out from the latest request.
func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters.Get(client)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	rl.limiters.Add(client, l)
	return l
}

// Middleware rejects over-limit clients with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":           "RATE_LIMITED",
				"message":        "Too many requests",
				"correlation_id": c.GetString(CorrelationIDKey),
			})
			return
		}
		c.Next()
	}
}
