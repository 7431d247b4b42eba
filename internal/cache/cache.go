// Package cache provides the prediction cache tiers: an in-process expirable
// LRU and a shared Redis store.
package cache

import (
	"context"
	"time"
)

// Cache stores string values by key. A miss is reported as found=false with a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}
