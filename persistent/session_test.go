package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/stretchr/testify/assert"
)

func TestSessionStore(t *testing.T) {
	db := openTestDb(t)
	assert := assert.New(t)
	ctx := context.Background()

	_, err := db.NewDelete().
		Model((*Session)(nil)).
		Where("1=1").
		Exec(ctx)
	if !assert.NoError(err) {
		return
	}

	store := &SessionStore{DB: db}
	now := time.Now().UTC().Truncate(time.Millisecond)

	owned := hairlens.Session{Id: "5d0b7a5e-owned", OwnerId: "u1", Token: "token-owned",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour), LastAccessedAt: now}
	anonymous := hairlens.Session{Id: "5d0b7a5e-anonymous", Token: "token-anonymous",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour), LastAccessedAt: now}
	expired := hairlens.Session{Id: "5d0b7a5e-expired", OwnerId: "u1", Token: "token-expired",
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)}
	for _, s := range []hairlens.Session{owned, anonymous, expired} {
		if !assert.NoError(store.Insert(ctx, s)) {
			return
		}
	}
	assert.Error(store.Insert(ctx, hairlens.Session{Id: "other", Token: owned.Token,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour), LastAccessedAt: now}), "duplicated token")

	{
		s, err := store.ByToken(ctx, owned.Token, now)
		if assert.NoError(err) {
			assert.Equal(owned, s)
		}
		s, err = store.ByToken(ctx, anonymous.Token, now)
		if assert.NoError(err) {
			assert.Equal("", s.OwnerId)
		}
		_, err = store.ByToken(ctx, expired.Token, now)
		assert.ErrorIs(err, hairlens.ErrSessionNotFound)
		s, err = store.ByToken(ctx, expired.Token, time.Time{})
		if assert.NoError(err) {
			assert.Equal(expired.Id, s.Id)
		}
		_, err = store.ByToken(ctx, "unexisting", time.Time{})
		assert.ErrorIs(err, hairlens.ErrSessionNotFound)
	}

	{
		touchedAt := now.Add(time.Minute)
		if assert.NoError(store.TouchLastAccessed(ctx, owned.Id, touchedAt)) {
			s, err := store.ByToken(ctx, owned.Token, now)
			if assert.NoError(err) {
				assert.Equal(touchedAt, s.LastAccessedAt)
			}
		}
		assert.ErrorIs(store.TouchLastAccessed(ctx, "unexisting", touchedAt), hairlens.ErrSessionNotFound)
	}

	{
		deleted, err := store.DeleteExpiredBefore(ctx, now)
		if assert.NoError(err) {
			assert.Equal(int64(1), deleted)
		}
		deleted, err = store.DeleteExpiredBefore(ctx, now)
		if assert.NoError(err) {
			assert.Equal(int64(0), deleted)
		}
	}

	{
		assert.NoError(store.DeleteByToken(ctx, anonymous.Token))
		assert.NoError(store.DeleteByToken(ctx, anonymous.Token))
		_, err := store.ByToken(ctx, anonymous.Token, time.Time{})
		assert.ErrorIs(err, hairlens.ErrSessionNotFound)
	}
}
