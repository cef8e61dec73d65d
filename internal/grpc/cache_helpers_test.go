package grpc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/nps-insights/internal/grpc/mocks"
)

func TestAddTTLJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), addTTLJitter(0))

	for range 100 {
		got := addTTLJitter(10 * time.Minute)
		assert.GreaterOrEqual(t, got, 10*time.Minute-maxTTLJitter)
		assert.Less(t, got, 10*time.Minute+maxTTLJitter)
	}

	for range 100 {
		got := addTTLJitter(10 * time.Second)
		assert.GreaterOrEqual(t, got, 5*time.Second)
		assert.Less(t, got, 15*time.Second)
	}
}

func TestShouldRefresh(t *testing.T) {
	rt := NewReadThrough(&mocks.MockCacher{}, time.Minute, zap.NewNop())
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	rt.now = func() time.Time { return now }

	assert.True(t, rt.shouldRefresh("k"))
	assert.False(t, rt.shouldRefresh("k"))
	assert.True(t, rt.shouldRefresh("other"))

	now = now.Add(31 * time.Second)
	assert.True(t, rt.shouldRefresh("k"))
}

func TestFindAndCache(t *testing.T) {
	t.Run("miss fetches and stores", func(t *testing.T) {
		cache := &mocks.MockCacher{}
		rt := NewReadThrough(cache, time.Minute, zap.NewNop())

		v, err := FindAndCache(context.Background(), rt, "k", func(ctx context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		rt.Wait()

		assert.Equal(t, 42, v)
		assert.Equal(t, []string{"k"}, cache.SetKeys())
	})

	t.Run("fetch errors are not cached", func(t *testing.T) {
		cache := &mocks.MockCacher{}
		rt := NewReadThrough(cache, time.Minute, zap.NewNop())
		boom := errors.New("boom")

		_, err := FindAndCache(context.Background(), rt, "k", func(ctx context.Context) (int, error) {
			return 0, boom
		})
		rt.Wait()

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, cache.SetKeys())
	})

	t.Run("hit right after a store does not refresh", func(t *testing.T) {
		var stored atomic.Value
		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				v, ok := stored.Load().(int)
				if !ok {
					return redis.Nil
				}
				*(dest.(*int)) = v
				return nil
			},
			SetFunc: func(ctx context.Context, key string, value any, _ time.Duration) error {
				stored.Store(value.(int))
				return nil
			},
		}
		rt := NewReadThrough(cache, time.Minute, zap.NewNop())

		var calls atomic.Int32
		fetch := func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 7, nil
		}

		_, err := FindAndCache(context.Background(), rt, "k", fetch)
		require.NoError(t, err)
		rt.Wait()

		v, err := FindAndCache(context.Background(), rt, "k", fetch)
		require.NoError(t, err)
		rt.Wait()

		assert.Equal(t, 7, v)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("concurrent misses share one fetch", func(t *testing.T) {
		rt := NewReadThrough(nil, time.Minute, zap.NewNop())
		release := make(chan struct{})
		var calls atomic.Int32

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = FindAndCache(context.Background(), rt, "k", func(ctx context.Context) (int, error) {
					calls.Add(1)
					<-release
					return 9, nil
				})
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, r := range results {
			assert.Equal(t, 9, r)
		}
	})
}
