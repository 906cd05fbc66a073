package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/hairlens/hairlens"
	"github.com/uptrace/bun"
)

type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_log"`

	Id        int64                  `bun:",pk,autoincrement"`
	CreatedAt time.Time              `bun:",nullzero,notnull,default:current_timestamp"`
	OwnerId   string                 `bun:",notnull"`
	Name      string                 `bun:",notnull"`
	Data      map[string]interface{} `bun:",notnull"`
}

func (l *ActivityLog) ToDomain() hairlens.ActivityLog {
	return hairlens.ActivityLog{
		Id:        l.Id,
		CreatedAt: l.CreatedAt.UTC(),
		OwnerId:   l.OwnerId,
		Name:      l.Name,
		Data:      l.Data,
	}
}

type ActivityStore struct {
	DB *bun.DB
}

var _ hairlens.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) AddLog(ctx context.Context, ownerId string, activity hairlens.Activity) error {
	data := activity.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	_, err := s.DB.NewInsert().
		Model(&ActivityLog{
			OwnerId: ownerId,
			Name:    activity.Name,
			Data:    data,
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *ActivityStore) ByOwnerId(ctx context.Context, ownerId string) ([]hairlens.ActivityLog, error) {
	var logs []ActivityLog
	err := s.DB.NewSelect().
		Model((*ActivityLog)(nil)).
		Where("activity_log.owner_id = ?", ownerId).
		Order("activity_log.id DESC").
		Scan(ctx, &logs)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	ml := make([]hairlens.ActivityLog, len(logs))
	for i, l := range logs {
		ml[i] = l.ToDomain()
	}
	return ml, nil
}
