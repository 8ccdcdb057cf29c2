package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

func TestNewClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(&RedisConfig{Addr: addr, MaxRetries: -1}, logging.NewNopLogger())
	assert.Nil(t, client)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func TestClient_Operations(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	deleted, err := client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.ErrorIs(t, client.Get(ctx, "foo").Err(), redis.Nil)
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Get(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
}

func TestCache_AgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisCache(client, nil, WithPrefix("nbfeat:"))
	ctx := context.Background()

	type entry struct{ Rows []float64 }
	require.NoError(t, cache.Set(ctx, "features:a", entry{Rows: []float64{1.5, 2}}, 0))
	require.NoError(t, cache.Set(ctx, "features:b", entry{}, 0))
	require.NoError(t, cache.Set(ctx, "other", entry{}, 0))

	var got entry
	require.NoError(t, cache.Get(ctx, "features:a", &got))
	assert.Equal(t, []float64{1.5, 2}, got.Rows)

	n, err := cache.DeleteByPrefix(ctx, "features:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("nbfeat:other"))
}

func TestCache_GetOrSetSharesConcurrentLoads(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := NewRedisCache(client, nil, WithPrefix("nbfeat:"))

	type entry struct{ Rows []float64 }
	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return entry{Rows: []float64{0.29}}, nil
	}

	const callers = 6
	var wg sync.WaitGroup
	results := make([]entry, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cache.GetOrSet(context.Background(), "features:x", &results[i], time.Minute, loader)
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []float64{0.29}, results[i].Rows)
	}
	assert.True(t, mr.Exists("nbfeat:features:x"))
}

func TestCache_TTLJitter(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	fixed := NewRedisCache(client, nil, WithPrefix("a:"), WithTTLJitter(-1))
	require.NoError(t, fixed.Set(ctx, "k", 1, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("a:k"))

	spread := NewRedisCache(client, nil, WithPrefix("b:"), WithTTLJitter(0.2))
	require.NoError(t, spread.Set(ctx, "k", 1, time.Hour))
	ttl := mr.TTL("b:k")
	assert.GreaterOrEqual(t, ttl, 48*time.Minute)
	assert.LessOrEqual(t, ttl, 72*time.Minute)
}
