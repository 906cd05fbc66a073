package persistent

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hairlens/hairlens"
	"github.com/hairlens/hairlens/inmem"
	"github.com/hairlens/hairlens/mock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/buntdb"
)

// A one second session validated 1.1s later is reported expired only when
// the cache keeps the entry past the session expiry.

func TestBuntCacheMinTTLKeepsExpiredSessionsVisible(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	bdb, err := buntdb.Open(":memory:")
	if err != nil {
		panic(err)
	}
	defer bdb.Close()

	store := inmem.NewSessionStore()
	plain := &hairlens.SessionManager{Store: store, Cache: &BuntSessionCache{Buntdb: bdb}}
	withMin := &hairlens.SessionManager{Store: store, Cache: &BuntSessionCache{Buntdb: bdb, MinTTL: time.Minute}}

	plainIssued, err := plain.Create(ctx, "u1", 1000)
	if !assert.NoError(err) {
		return
	}
	minIssued, err := withMin.Create(ctx, "u1", 1000)
	if !assert.NoError(err) {
		return
	}
	time.Sleep(1100 * time.Millisecond)

	v, err := plain.Validate(ctx, plainIssued.Token)
	if assert.NoError(err) {
		assert.Equal(hairlens.ValidationNotFound, v.Status)
	}
	v, err = withMin.Validate(ctx, minIssued.Token)
	if assert.NoError(err) {
		assert.Equal(hairlens.ValidationExpired, v.Status)
	}
	v, err = withMin.Validate(ctx, minIssued.Token)
	if assert.NoError(err) {
		assert.Equal(hairlens.ValidationNotFound, v.Status)
	}
}

func TestRedisCacheMinTTLKeepsExpiredSessionsVisible(t *testing.T) {
	cases := []struct {
		minTTL   time.Duration
		expected hairlens.ValidationStatus
	}{
		{0, hairlens.ValidationNotFound},
		{time.Minute, hairlens.ValidationExpired},
	}
	for _, c := range cases {
		t.Run(c.minTTL.String(), func(t *testing.T) {
			assert := assert.New(t)
			ctx := context.Background()

			m := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: m.Addr()})
			t.Cleanup(func() { _ = client.Close() })

			clock := mock.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
			manager := &hairlens.SessionManager{
				Store: inmem.NewSessionStore(),
				Cache: &RedisSessionCache{Client: client, MinTTL: c.minTTL},
				Now:   clock.Now,
			}

			issued, err := manager.Create(ctx, "u1", 1000)
			if !assert.NoError(err) {
				return
			}
			clock.Advance(1100 * time.Millisecond)
			m.FastForward(1100 * time.Millisecond)

			v, err := manager.Validate(ctx, issued.Token)
			if assert.NoError(err) {
				assert.Equal(c.expected, v.Status)
			}
		})
	}
}
