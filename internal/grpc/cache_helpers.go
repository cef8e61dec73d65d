package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second
	maxTTLJitter        = 15 * time.Second
)

// ReadThrough bundles the state shared by every cached read: the cache, the
// singleflight group and bookkeeping for background refreshes.
type ReadThrough struct {
	cache  Cacher
	ttl    time.Duration
	logger *zap.Logger

	sf        singleflight.Group
	mu        sync.Mutex
	refreshed map[string]time.Time
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewReadThrough returns a ReadThrough over cache. A nil cache disables caching
// but keeps request coalescing.
func NewReadThrough(cache Cacher, ttl time.Duration, logger *zap.Logger) *ReadThrough {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadThrough{
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
		refreshed: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Wait blocks until background cache writes and refreshes have finished.
func (rt *ReadThrough) Wait() {
	rt.wg.Wait()
}

// addTTLJitter spreads expirations by up to ±15s, never below half the TTL.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := min(maxTTLJitter, ttl/2)
	if jitter <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int64N(int64(2*jitter))) - jitter
}

// shouldRefresh allows one background refresh per key every half TTL.
func (rt *ReadThrough) shouldRefresh(key string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := rt.now()
	if last, ok := rt.refreshed[key]; ok && now.Sub(last) < rt.ttl/2 {
		return false
	}
	rt.refreshed[key] = now
	return true
}

func (rt *ReadThrough) store(key string, value any, op string) {
	setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttl := addTTLJitter(rt.ttl)
	if err := rt.cache.Set(setCtx, key, value, ttl); err != nil {
		rt.logger.Warn("cache set failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return
	}
	rt.mu.Lock()
	rt.refreshed[key] = rt.now()
	rt.mu.Unlock()
	rt.logger.Debug("cache updated", zap.String("op", op), zap.String("key", key), zap.Duration("ttl", ttl))
}

func triggerBackgroundRefresh[T any](rt *ReadThrough, key string, fn FetchFunc[T]) {
	if !rt.shouldRefresh(key) {
		return
	}

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()

		_, _, _ = rt.sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				rt.logger.Warn("background refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}
			rt.store(key, value, "refresh")
			return value, nil
		})
	}()
}

func fetchAndStore[T any](ctx context.Context, rt *ReadThrough, key string, fn FetchFunc[T]) (T, error) {
	var zero T

	value, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	if rt.cache != nil {
		rt.wg.Add(1)
		go func(v T) {
			defer rt.wg.Done()
			rt.store(key, v, "miss")
		}(value)
	}

	return value, nil
}

// FindAndCache implements read-through caching with singleflight and refresh-ahead logic.
func FindAndCache[T any](ctx context.Context, rt *ReadThrough, key string, fn FetchFunc[T]) (T, error) {
	var zero T

	if rt.cache != nil {
		var cached T
		err := rt.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			rt.logger.Debug("cache hit", zap.String("key", key))
			triggerBackgroundRefresh(rt, key, fn)
			return cached, nil

		case errors.Is(err, redis.Nil):
			rt.logger.Debug("cache miss", zap.String("key", key))

		default:
			rt.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, shared := rt.sf.Do(key, func() (any, error) {
		return fetchAndStore(ctx, rt, key, fn)
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		rt.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		rt.logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
