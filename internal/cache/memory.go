package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is the tier-1 cache. Entries expire after the TTL given at
// construction; the ttl argument to Set is ignored.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache creates an LRU holding at most size entries.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1000
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.lru.Add(key, value)
	return nil
}

// Len returns the number of live entries.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}

// Purge drops every entry.
func (m *MemoryCache) Purge() {
	m.lru.Purge()
}

func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}
