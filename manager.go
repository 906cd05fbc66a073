package hairlens

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultCacheTimeout = 250 * time.Millisecond
	defaultStoreTimeout = 5 * time.Second

	// sweeps delete in bulk
	defaultCleanupTimeout = time.Minute

	maxTTLMillis = math.MaxInt64 / int64(time.Millisecond)
)

// SessionService is what request handlers need from session management.
type SessionService interface {
	Create(ctx context.Context, ownerId string, ttlMillis int64) (IssuedToken, error)

	Validate(ctx context.Context, token string) (Validation, error)

	Revoke(ctx context.Context, token string) error

	CleanupExpired(ctx context.Context) (CleanupResult, error)
}

var _ SessionService = (*SessionManager)(nil)

// SessionManager issues, validates and sweeps sessions kept in a durable
// store with a write-through cache in front of it.
//
// Writes to the store and the cache are sequential, never transactional:
// a crash between them leaves a store record without a cache entry, which
// the next validation repopulates.
type SessionManager struct {
	Store SessionStore
	Cache SessionCache
	// Optional lifecycle audit log. Failures are logged only.
	Activity ActivityStore

	// Defaults to RandomTokenGenerator.
	Tokens TokenGenerator
	// Defaults to UuidGenerator.
	Ids TokenGenerator
	// Defaults to time.Now.
	Now func() time.Time

	// Used when Create is called without a positive ttl. Defaults to DefaultSessionTTL.
	DefaultTTL time.Duration
	// Timeout of a single cache call. A timed out call counts as a miss.
	CacheTimeout time.Duration
	// Timeout of a single store call.
	StoreTimeout time.Duration
	// Timeout of the store call made by CleanupExpired. Defaults to one minute.
	CleanupTimeout time.Duration
}

// Create registers a new session. ownerId may be empty for anonymous
// sessions, ttlMillis <= 0 selects the default ttl.
func (m *SessionManager) Create(ctx context.Context, ownerId string, ttlMillis int64) (IssuedToken, error) {
	ttl := m.sessionTTL(ttlMillis)

	id, err := m.ids().Next()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate session id: %w", err)
	}
	token, err := m.tokens().Next()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	session := Session{
		Id:             id,
		OwnerId:        ownerId,
		Token:          token,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}

	storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
	err = m.Store.Insert(storeCtx, session)
	cancel()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("insert session: %w", err)
	}

	m.putCache(ctx, token, session.CacheEntry(), ttl)
	m.addActivity(ctx, ownerId, Activity{Name: ActivitySessionCreated, Data: map[string]interface{}{
		"session_id": session.Id,
		"expires_at": session.ExpiresAt.UnixMilli(),
	}})
	return IssuedToken{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Validate resolves token to a session. Invalid and expired tokens are
// reported through Validation.Status; a non nil error (wrapping
// ErrValidationFailed) means the state could not be determined.
func (m *SessionManager) Validate(ctx context.Context, token string) (Validation, error) {
	if token == "" {
		return Validation{Status: ValidationNotFound}, nil
	}
	now := m.now()

	if entry, ok := m.cachedEntry(ctx, token); ok {
		return m.validateCached(ctx, token, entry, now)
	}
	return m.validateStored(ctx, token, now)
}

func (m *SessionManager) validateCached(ctx context.Context, token string, entry CacheEntry, now time.Time) (Validation, error) {
	if !now.Before(entry.ExpiresAt) {
		// Remove both so the stale projection is not served again before
		// its cache ttl runs out.
		m.deleteCached(ctx, token, entry.SessionId)

		storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
		err := m.Store.DeleteByToken(storeCtx, token)
		cancel()
		if err != nil {
			logrus.WithError(err).
				WithField("session_id", entry.SessionId).
				Warnln("Could not delete expired session, leaving it to cleanup.")
		}
		m.addActivity(ctx, entry.OwnerId, Activity{Name: ActivitySessionExpired, Data: map[string]interface{}{
			"session_id": entry.SessionId,
		}})
		return Validation{Status: ValidationExpired, SessionId: entry.SessionId,
			OwnerId: entry.OwnerId, ExpiresAt: entry.ExpiresAt}, nil
	}

	err := m.touch(ctx, entry.SessionId, now)
	if errors.Is(err, ErrSessionNotFound) {
		// cache outlived its source of truth
		m.deleteCached(ctx, token, entry.SessionId)
		return Validation{Status: ValidationNotFound}, nil
	}
	if err != nil {
		return Validation{}, fmt.Errorf("%w: touch session: %w", ErrValidationFailed, err)
	}
	return Validation{
		Status:    ValidationValid,
		SessionId: entry.SessionId,
		OwnerId:   entry.OwnerId,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

func (m *SessionManager) validateStored(ctx context.Context, token string, now time.Time) (Validation, error) {
	storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
	session, err := m.Store.ByToken(storeCtx, token, now)
	cancel()
	if errors.Is(err, ErrSessionNotFound) {
		return Validation{Status: ValidationNotFound}, nil
	}
	if err != nil {
		return Validation{}, fmt.Errorf("%w: lookup session: %w", ErrValidationFailed, err)
	}

	err = m.touch(ctx, session.Id, now)
	if errors.Is(err, ErrSessionNotFound) {
		return Validation{Status: ValidationNotFound}, nil
	}
	if err != nil {
		return Validation{}, fmt.Errorf("%w: touch session: %w", ErrValidationFailed, err)
	}

	m.putCache(ctx, token, session.CacheEntry(), session.ExpiresAt.Sub(now))
	return Validation{
		Status:    ValidationValid,
		SessionId: session.Id,
		OwnerId:   session.OwnerId,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// CleanupExpired deletes stored sessions which expired before now. Cache
// entries are left to their own ttl.
func (m *SessionManager) CleanupExpired(ctx context.Context) (CleanupResult, error) {
	now := m.now()
	storeCtx, cancel := context.WithTimeout(ctx, m.cleanupTimeout())
	defer cancel()

	deleted, err := m.Store.DeleteExpiredBefore(storeCtx, now)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("delete expired sessions: %w", err)
	}
	logrus.WithField("deleted", deleted).Debugln("Expired sessions cleaned up.")
	return CleanupResult{DeletedCount: deleted}, nil
}

// Revoke invalidates token immediately in both the store and the cache.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
	defer cancel()

	session, err := m.Store.ByToken(storeCtx, token, time.Time{})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			m.deleteCached(ctx, token, "")
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	if err := m.Store.DeleteByToken(storeCtx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.deleteCached(ctx, token, session.Id)
	m.addActivity(ctx, session.OwnerId, Activity{Name: ActivitySessionRevoked, Data: map[string]interface{}{
		"session_id": session.Id,
	}})
	return nil
}

func (m *SessionManager) touch(ctx context.Context, sessionId string, now time.Time) error {
	storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
	defer cancel()
	return m.Store.TouchLastAccessed(storeCtx, sessionId, now)
}

// cachedEntry reports a cache hit. Every cache failure is a miss.
func (m *SessionManager) cachedEntry(ctx context.Context, token string) (CacheEntry, bool) {
	cacheCtx, cancel := context.WithTimeout(ctx, m.cacheTimeout())
	defer cancel()

	entry, err := m.Cache.Get(cacheCtx, token)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		return CacheEntry{}, false
	default:
		logrus.WithError(err).
			WithField("token_hint", tokenHint(token)).
			Warnln("Session cache lookup failed, falling back to store.")
		return CacheEntry{}, false
	}
	if entry.SessionId == "" || entry.ExpiresAt.IsZero() {
		logrus.WithField("token_hint", tokenHint(token)).
			Warnln("Malformed session cache entry, falling back to store.")
		return CacheEntry{}, false
	}
	return entry, true
}

// putCache stores entry for the remaining lifetime rounded down to whole
// seconds. Lifetimes under a second are not cached at all since cache
// backends treat a zero ttl as no expiry.
func (m *SessionManager) putCache(ctx context.Context, token string, entry CacheEntry, remaining time.Duration) {
	ttl := remaining.Truncate(time.Second)
	if ttl <= 0 {
		return
	}
	cacheCtx, cancel := context.WithTimeout(ctx, m.cacheTimeout())
	defer cancel()

	if err := m.Cache.Put(cacheCtx, token, entry, ttl); err != nil {
		logrus.WithError(err).
			WithField("session_id", entry.SessionId).
			Warnln("Could not write session cache entry.")
	}
}

func (m *SessionManager) deleteCached(ctx context.Context, token string, sessionId string) {
	cacheCtx, cancel := context.WithTimeout(ctx, m.cacheTimeout())
	defer cancel()

	if err := m.Cache.Delete(cacheCtx, token); err != nil {
		logrus.WithError(err).
			WithField("session_id", sessionId).
			Warnln("Could not delete session cache entry.")
	}
}

func (m *SessionManager) addActivity(ctx context.Context, ownerId string, activity Activity) {
	if m.Activity == nil || ownerId == "" {
		return
	}
	storeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout())
	defer cancel()

	if err := m.Activity.AddLog(storeCtx, ownerId, activity); err != nil {
		logrus.WithError(err).
			WithField("activity", activity.Name).
			Warnln("Could not add activity log.")
	}
}

func (m *SessionManager) sessionTTL(ttlMillis int64) time.Duration {
	switch {
	case ttlMillis <= 0:
		if m.DefaultTTL > 0 {
			return m.DefaultTTL
		}
		return DefaultSessionTTL
	case ttlMillis > maxTTLMillis:
		return time.Duration(maxTTLMillis) * time.Millisecond
	default:
		return time.Duration(ttlMillis) * time.Millisecond
	}
}

func (m *SessionManager) now() time.Time {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}

func (m *SessionManager) tokens() TokenGenerator {
	if m.Tokens == nil {
		return RandomTokenGenerator{}
	}
	return m.Tokens
}

func (m *SessionManager) ids() TokenGenerator {
	if m.Ids == nil {
		return UuidGenerator{}
	}
	return m.Ids
}

func (m *SessionManager) cacheTimeout() time.Duration {
	if m.CacheTimeout > 0 {
		return m.CacheTimeout
	}
	return defaultCacheTimeout
}

func (m *SessionManager) storeTimeout() time.Duration {
	if m.StoreTimeout > 0 {
		return m.StoreTimeout
	}
	return defaultStoreTimeout
}

func (m *SessionManager) cleanupTimeout() time.Duration {
	if m.CleanupTimeout > 0 {
		return m.CleanupTimeout
	}
	return defaultCleanupTimeout
}

func tokenHint(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6]
}
