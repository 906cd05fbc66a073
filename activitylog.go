package hairlens

import (
	"context"
	"time"
)

const (
	ActivitySessionCreated = "session_created"
	ActivitySessionExpired = "session_expired"
	ActivitySessionRevoked = "session_revoked"
)

type Activity struct {
	Name string
	Data map[string]interface{}
}

type ActivityLog struct {
	Id        int64
	CreatedAt time.Time
	OwnerId   string
	Name      string
	Data      map[string]interface{}
}

type ActivityStore interface {
	AddLog(ctx context.Context, ownerId string, activity Activity) error

	// Logs of given owner, newest first.
	ByOwnerId(ctx context.Context, ownerId string) ([]ActivityLog, error)
}
