package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hairlens/hairlens"
)

type SessionStore struct {
	sessions map[string]hairlens.Session // by token
	tokens   map[string]string           // session id -> token
	mutex    sync.RWMutex
}

var _ hairlens.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]hairlens.Session),
		tokens:   make(map[string]string),
	}
}

func (s *SessionStore) Insert(ctx context.Context, session hairlens.Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return fmt.Errorf("duplicated session token")
	}
	if _, ok := s.tokens[session.Id]; ok {
		return fmt.Errorf("duplicated session id '%s'", session.Id)
	}
	s.sessions[session.Token] = session
	s.tokens[session.Id] = session.Token
	return nil
}

func (s *SessionStore) ByToken(ctx context.Context, token string, liveAt time.Time) (hairlens.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[token]
	if !ok || (!liveAt.IsZero() && !session.LiveAt(liveAt)) {
		return hairlens.Session{}, hairlens.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) TouchLastAccessed(ctx context.Context, sessionId string, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	token, ok := s.tokens[sessionId]
	if !ok {
		return hairlens.ErrSessionNotFound
	}
	session := s.sessions[token]
	session.LastAccessedAt = at
	s.sessions[token] = session
	return nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if session, ok := s.sessions[token]; ok {
		delete(s.tokens, session.Id)
		delete(s.sessions, token)
	}
	return nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var deleted int64
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(before) {
			delete(s.tokens, session.Id)
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (s *SessionStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

type cacheItem struct {
	entry    hairlens.CacheEntry
	deadline time.Time
}

// SessionCache is a map backed hairlens.SessionCache evicting entries lazily
// once their ttl (measured with its own clock) elapses.
type SessionCache struct {
	// Entries are kept at least that long regardless of the requested ttl,
	// like edge key-value stores with a minimal expiration do.
	MinTTL time.Duration

	now     func() time.Time
	entries map[string]cacheItem
	mutex   sync.Mutex
}

var _ hairlens.SessionCache = (*SessionCache)(nil)

// Nil now means time.Now.
func NewSessionCache(now func() time.Time) *SessionCache {
	if now == nil {
		now = time.Now
	}
	return &SessionCache{
		now:     now,
		entries: make(map[string]cacheItem),
	}
}

func (c *SessionCache) Put(ctx context.Context, token string, entry hairlens.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("non positive ttl %s", ttl)
	}
	if ttl < c.MinTTL {
		ttl = c.MinTTL
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[token] = cacheItem{entry: entry, deadline: c.now().Add(ttl)}
	return nil
}

func (c *SessionCache) Get(ctx context.Context, token string) (hairlens.CacheEntry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, ok := c.entries[token]
	if !ok {
		return hairlens.CacheEntry{}, hairlens.ErrSessionNotFound
	}
	if !c.now().Before(item.deadline) {
		delete(c.entries, token)
		return hairlens.CacheEntry{}, hairlens.ErrSessionNotFound
	}
	return item.entry, nil
}

func (c *SessionCache) Delete(ctx context.Context, token string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, token)
	return nil
}
