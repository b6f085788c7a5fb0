package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/godilite/perf-dashboard/pkg/cache"
)

// TrackingCache is an in-process cache.Cacher that stores JSON like the Redis
// cache does and counts calls.
type TrackingCache struct {
	mu       sync.Mutex
	GetCalls int
	SetCalls int
	data     map[string]CacheEntry
}

type CacheEntry struct {
	Value  []byte
	Expiry time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data: make(map[string]CacheEntry),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GetCalls++
	entry, exists := c.data[key]
	if !exists || time.Now().After(entry.Expiry) {
		return cache.ErrMiss
	}
	return json.Unmarshal(entry.Value, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.SetCalls++
	c.data[key] = CacheEntry{
		Value:  raw,
		Expiry: time.Now().Add(exp),
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (c *TrackingCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *TrackingCache) Close() error {
	return nil
}
