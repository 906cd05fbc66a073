package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisSessionCache keeps session cache entries as JSON strings with
// a redis level expiry.
type RedisSessionCache struct {
	Client redis.UniversalClient
	// Key prefix, "session:" when empty.
	Prefix string
	// Entries are kept at least that long, see BuntSessionCache.MinTTL.
	MinTTL time.Duration
}

var _ hairlens.SessionCache = (*RedisSessionCache)(nil)

func (c *RedisSessionCache) key(token string) string {
	if c.Prefix == "" {
		return sessionCachePrefix + token
	}
	return c.Prefix + token
}

func (c *RedisSessionCache) Put(ctx context.Context, token string, entry hairlens.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("non positive ttl %s", ttl)
	}
	if ttl < c.MinTTL {
		ttl = c.MinTTL
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("cache entry serialize: %s", err)
	}
	if err := c.Client.Set(ctx, c.key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisSessionCache) Get(ctx context.Context, token string) (hairlens.CacheEntry, error) {
	data, err := c.Client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return hairlens.CacheEntry{}, hairlens.ErrSessionNotFound
		}
		return hairlens.CacheEntry{}, fmt.Errorf("redis get: %w", err)
	}

	var entry hairlens.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return hairlens.CacheEntry{}, fmt.Errorf("deserialize cache entry: %s", err)
	}
	return entry, nil
}

func (c *RedisSessionCache) Delete(ctx context.Context, token string) error {
	if err := c.Client.Del(ctx, c.key(token)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
