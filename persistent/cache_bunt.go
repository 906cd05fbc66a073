package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/tidwall/buntdb"
)

const sessionCachePrefix = "session:"

// BuntSessionCache keeps session cache entries in buntdb under
// "session:<token>", letting buntdb expire them.
type BuntSessionCache struct {
	Buntdb *buntdb.DB
	// Entries are kept at least that long. Expired entries still hitting
	// the cache let validation report them as expired instead of unknown.
	MinTTL time.Duration
}

var _ hairlens.SessionCache = (*BuntSessionCache)(nil)

func (c *BuntSessionCache) Put(ctx context.Context, token string, entry hairlens.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("non positive ttl %s", ttl)
	}
	if ttl < c.MinTTL {
		ttl = c.MinTTL
	}
	serializedEntry, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("cache entry serialize: %s", err)
	}

	err = c.Buntdb.Update(func(tx *buntdb.Tx) error {
		expireOptions := &buntdb.SetOptions{Expires: true, TTL: ttl}
		_, _, err := tx.Set(sessionCachePrefix+token, string(serializedEntry), expireOptions)
		if err != nil {
			return fmt.Errorf("set cache entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bunt update: %w", err)
	}
	return nil
}

func (c *BuntSessionCache) Get(ctx context.Context, token string) (hairlens.CacheEntry, error) {
	var entry hairlens.CacheEntry
	err := c.Buntdb.View(func(tx *buntdb.Tx) error {
		serializedEntry, err := tx.Get(sessionCachePrefix + token)
		if err != nil {
			return fmt.Errorf("get serialized cache entry: %w", err)
		}
		if err := json.Unmarshal([]byte(serializedEntry), &entry); err != nil {
			return fmt.Errorf("deserialize cache entry: %s", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return hairlens.CacheEntry{}, hairlens.ErrSessionNotFound
		}
		return hairlens.CacheEntry{}, fmt.Errorf("bunt view: %w", err)
	}
	return entry, nil
}

func (c *BuntSessionCache) Delete(ctx context.Context, token string) error {
	err := c.Buntdb.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sessionCachePrefix + token)
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("bunt update: %w", err)
	}
	return nil
}
