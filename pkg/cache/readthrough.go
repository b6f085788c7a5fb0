package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultTTL        = 10 * time.Minute
	defaultSetTimeout = 5 * time.Second

	// fetchTimeout bounds a shared fetch, which outlives the caller that
	// started it.
	fetchTimeout = 30 * time.Second
)

// Lookup outcomes reported to an Observer.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Observer is told the outcome of every cache lookup.
type Observer interface {
	ObserveCacheLookup(result string)
}

// ReadThrough serves values from a Cacher and falls back to a fetch function
// on a miss. Concurrent misses for one key share a single fetch.
//
// Keys are expected to embed the version of the data they describe, so a
// cached value never goes stale; it is simply abandoned when the version moves.
type ReadThrough struct {
	cache    Cacher
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
	sf       singleflight.Group
}

type ReadThroughOption func(*ReadThrough)

func WithObserver(o Observer) ReadThroughOption {
	return func(r *ReadThrough) {
		r.observer = o
	}
}

func NewReadThrough(c Cacher, ttl time.Duration, logger *zap.Logger, opts ...ReadThroughOption) *ReadThrough {
	if c == nil {
		c = Nop{}
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ReadThrough{
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the base expiration used for new entries.
func (r *ReadThrough) TTL() time.Duration {
	return r.ttl
}

// addTTLJitter adds up to ±15s so entries written together do not expire together.
func addTTLJitter(ttl time.Duration) time.Duration {
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	if ttl+jitter <= 0 {
		return ttl
	}
	return ttl + jitter
}

func (r *ReadThrough) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveCacheLookup(result)
	}
}

// FindAndCache returns the cached value under key, or runs fn once for all
// concurrent callers and stores its result in the background.
func FindAndCache[T any](ctx context.Context, r *ReadThrough, key string, fn FetchFunc[T]) (T, error) {
	var zero T

	var cached T
	err := r.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		r.observe(ResultHit)
		r.logger.Debug("cache hit", zap.String("key", key))
		return cached, nil
	case errors.Is(err, ErrMiss):
		r.observe(ResultMiss)
		r.logger.Debug("cache miss", zap.String("key", key))
	default:
		r.observe(ResultError)
		r.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := r.sf.Do(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		value, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		go r.store(key, value)
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		r.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		r.logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}

func (r *ReadThrough) store(key string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttl := addTTLJitter(r.ttl)
	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
		return
	}
	r.logger.Debug("cache populated on miss", zap.String("key", key), zap.Duration("ttl", ttl))
}
