package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/uptrace/bun"
)

type Session struct {
	bun.BaseModel `bun:"table:session"`

	Id             string    `bun:",pk"`
	OwnerId        string    `bun:",nullzero"`
	Token          string    `bun:",notnull,unique"`
	CreatedAt      time.Time `bun:",notnull"`
	ExpiresAt      time.Time `bun:",notnull"`
	LastAccessedAt time.Time `bun:",notnull"`
}

func (s Session) ToDomain() hairlens.Session {
	return hairlens.Session{
		Id:             s.Id,
		OwnerId:        s.OwnerId,
		Token:          s.Token,
		CreatedAt:      s.CreatedAt.UTC(),
		ExpiresAt:      s.ExpiresAt.UTC(),
		LastAccessedAt: s.LastAccessedAt.UTC(),
	}
}

type SessionStore struct {
	DB *bun.DB
}

var _ hairlens.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) Insert(ctx context.Context, session hairlens.Session) error {
	_, err := s.DB.NewInsert().
		Model(&Session{
			Id:             session.Id,
			OwnerId:        session.OwnerId,
			Token:          session.Token,
			CreatedAt:      session.CreatedAt,
			ExpiresAt:      session.ExpiresAt,
			LastAccessedAt: session.LastAccessedAt,
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) ByToken(ctx context.Context, token string, liveAt time.Time) (hairlens.Session, error) {
	session := new(Session)
	q := s.DB.NewSelect().
		Model(session).
		Where("token = ?", token)
	if !liveAt.IsZero() {
		q = q.Where("expires_at > ?", liveAt)
	}
	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hairlens.Session{}, hairlens.ErrSessionNotFound
		}
		return hairlens.Session{}, fmt.Errorf("select session: %w", err)
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) TouchLastAccessed(ctx context.Context, sessionId string, at time.Time) error {
	res, err := s.DB.NewUpdate().
		Model((*Session)(nil)).
		Set("last_accessed_at = ?", at).
		Where("id = ?", sessionId).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return hairlens.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.DB.NewDelete().
		Model((*Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}
