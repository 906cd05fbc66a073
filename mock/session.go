package mock

import (
	"context"
	"time"

	"github.com/hairlens/hairlens"
)

type SessionStore struct {
	InsertFn func(ctx context.Context, session hairlens.Session) error

	ByTokenFn func(ctx context.Context, token string, liveAt time.Time) (hairlens.Session, error)

	TouchLastAccessedFn func(ctx context.Context, sessionId string, at time.Time) error

	DeleteByTokenFn func(ctx context.Context, token string) error

	DeleteExpiredBeforeFn func(ctx context.Context, before time.Time) (int64, error)
}

func (s SessionStore) Insert(ctx context.Context, session hairlens.Session) error {
	return s.InsertFn(ctx, session)
}

func (s SessionStore) ByToken(ctx context.Context, token string, liveAt time.Time) (hairlens.Session, error) {
	return s.ByTokenFn(ctx, token, liveAt)
}

func (s SessionStore) TouchLastAccessed(ctx context.Context, sessionId string, at time.Time) error {
	return s.TouchLastAccessedFn(ctx, sessionId, at)
}

func (s SessionStore) DeleteByToken(ctx context.Context, token string) error {
	return s.DeleteByTokenFn(ctx, token)
}

func (s SessionStore) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	return s.DeleteExpiredBeforeFn(ctx, before)
}

type SessionCache struct {
	PutFn func(ctx context.Context, token string, entry hairlens.CacheEntry, ttl time.Duration) error

	GetFn func(ctx context.Context, token string) (hairlens.CacheEntry, error)

	DeleteFn func(ctx context.Context, token string) error
}

func (c SessionCache) Put(ctx context.Context, token string, entry hairlens.CacheEntry, ttl time.Duration) error {
	return c.PutFn(ctx, token, entry, ttl)
}

func (c SessionCache) Get(ctx context.Context, token string) (hairlens.CacheEntry, error) {
	return c.GetFn(ctx, token)
}

func (c SessionCache) Delete(ctx context.Context, token string) error {
	return c.DeleteFn(ctx, token)
}

type SessionService struct {
	CreateFn func(ctx context.Context, ownerId string, ttlMillis int64) (hairlens.IssuedToken, error)

	ValidateFn func(ctx context.Context, token string) (hairlens.Validation, error)

	RevokeFn func(ctx context.Context, token string) error

	CleanupExpiredFn func(ctx context.Context) (hairlens.CleanupResult, error)
}

func (s SessionService) Create(ctx context.Context, ownerId string, ttlMillis int64) (hairlens.IssuedToken, error) {
	return s.CreateFn(ctx, ownerId, ttlMillis)
}

func (s SessionService) Validate(ctx context.Context, token string) (hairlens.Validation, error) {
	return s.ValidateFn(ctx, token)
}

func (s SessionService) Revoke(ctx context.Context, token string) error {
	return s.RevokeFn(ctx, token)
}

func (s SessionService) CleanupExpired(ctx context.Context) (hairlens.CleanupResult, error) {
	return s.CleanupExpiredFn(ctx)
}
