package hairlens

import (
	"context"
	"errors"
	"time"
)

// DefaultSessionTTL is used when a session is requested without a usable ttl.
const DefaultSessionTTL = 24 * time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")

	// Returned (wrapped) by SessionManager.Validate when the session state
	// could not be determined because a storage call failed.
	ErrValidationFailed = errors.New("session validation failed")
)

// Durable session record. Only LastAccessedAt changes after creation.
type Session struct {
	Id             string
	OwnerId        string
	Token          string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
}

func (s Session) LiveAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}

func (s Session) CacheEntry() CacheEntry {
	return CacheEntry{
		SessionId: s.Id,
		OwnerId:   s.OwnerId,
		ExpiresAt: s.ExpiresAt,
	}
}

// CacheEntry is the projection of a Session kept in the fast cache, keyed by token.
type CacheEntry struct {
	SessionId string    `json:"sessionId"`
	OwnerId   string    `json:"ownerId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore is the durable source of truth for sessions.
type SessionStore interface {
	Insert(ctx context.Context, session Session) error

	// If liveAt is non zero only sessions expiring after liveAt are returned,
	// everything else is reported as ErrSessionNotFound.
	ByToken(ctx context.Context, token string, liveAt time.Time) (Session, error)

	// Returns ErrSessionNotFound when no session has given id.
	TouchLastAccessed(ctx context.Context, sessionId string, at time.Time) error

	DeleteByToken(ctx context.Context, token string) error

	// Deletes sessions with expiry strictly before given time.
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

// SessionCache holds disposable CacheEntry projections with a storage level ttl.
type SessionCache interface {
	Put(ctx context.Context, token string, entry CacheEntry, ttl time.Duration) error

	// Returns ErrSessionNotFound on miss.
	Get(ctx context.Context, token string) (CacheEntry, error)

	Delete(ctx context.Context, token string) error
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type ValidationStatus byte

const (
	ValidationNotFound ValidationStatus = 0
	ValidationExpired  ValidationStatus = 1
	ValidationValid    ValidationStatus = 2
)

func (s ValidationStatus) String() string {
	switch s {
	case ValidationValid:
		return "valid"
	case ValidationExpired:
		return "expired"
	default:
		return "not_found"
	}
}

type Validation struct {
	Status    ValidationStatus
	SessionId string
	OwnerId   string
	ExpiresAt time.Time
}

func (v Validation) Valid() bool {
	return v.Status == ValidationValid
}

type CleanupResult struct {
	DeletedCount int64
}
