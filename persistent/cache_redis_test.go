package persistent

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hairlens/hairlens"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newRedisCacheForTest(t *testing.T) (*miniredis.Miniredis, *RedisSessionCache) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})
	return m, &RedisSessionCache{Client: client}
}

func TestRedisSessionCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	m, cache := newRedisCacheForTest(t)

	entry := hairlens.CacheEntry{
		SessionId: "5d0b7a5e",
		OwnerId:   "u1",
		ExpiresAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	_, err := cache.Get(ctx, "token")
	assert.ErrorIs(err, hairlens.ErrSessionNotFound)
	assert.Error(cache.Put(ctx, "token", entry, 0))

	if !assert.NoError(cache.Put(ctx, "token", entry, 30*time.Second)) {
		return
	}
	assert.True(m.Exists("session:token"))
	assert.Equal(30*time.Second, m.TTL("session:token"))

	got, err := cache.Get(ctx, "token")
	if assert.NoError(err) {
		assert.Equal(entry, got)
	}

	m.FastForward(29 * time.Second)
	_, err = cache.Get(ctx, "token")
	assert.NoError(err)
	m.FastForward(time.Second)
	_, err = cache.Get(ctx, "token")
	assert.ErrorIs(err, hairlens.ErrSessionNotFound)

	if assert.NoError(cache.Put(ctx, "token", entry, time.Minute)) {
		assert.NoError(cache.Delete(ctx, "token"))
		assert.NoError(cache.Delete(ctx, "token"))
		assert.False(m.Exists("session:token"))
	}
}

func TestRedisSessionCachePrefix(t *testing.T) {
	assert := assert.New(t)
	m, cache := newRedisCacheForTest(t)
	cache.Prefix = "hairlens:session:"

	if assert.NoError(cache.Put(context.Background(), "token", hairlens.CacheEntry{SessionId: "s1"}, time.Minute)) {
		assert.True(m.Exists("hairlens:session:token"))
	}
}

func TestRedisSessionCacheUnavailable(t *testing.T) {
	assert := assert.New(t)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1",
		DialTimeout: 20 * time.Millisecond, ReadTimeout: 20 * time.Millisecond, WriteTimeout: 20 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	cache := &RedisSessionCache{Client: client}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := cache.Get(ctx, "token")
	assert.Error(err)
	assert.NotErrorIs(err, hairlens.ErrSessionNotFound)

	_, err = NewRedisClient(ctx, "127.0.0.1:1", "")
	assert.Error(err)
}

func TestRedisSessionCacheMinTTL(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	m, cache := newRedisCacheForTest(t)
	cache.MinTTL = time.Minute

	if assert.NoError(cache.Put(ctx, "short", hairlens.CacheEntry{SessionId: "s1"}, time.Second)) {
		assert.Equal(time.Minute, m.TTL("session:short"))
	}
	if assert.NoError(cache.Put(ctx, "long", hairlens.CacheEntry{SessionId: "s2"}, time.Hour)) {
		assert.Equal(time.Hour, m.TTL("session:long"))
	}
}
