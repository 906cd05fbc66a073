package mock

import (
	"context"

	"github.com/hairlens/hairlens"
)

type ActivityStore struct {
	AddLogFn func(ctx context.Context, ownerId string, activity hairlens.Activity) error

	ByOwnerIdFn func(ctx context.Context, ownerId string) ([]hairlens.ActivityLog, error)
}

func (s ActivityStore) AddLog(ctx context.Context, ownerId string, activity hairlens.Activity) error {
	return s.AddLogFn(ctx, ownerId, activity)
}

func (s ActivityStore) ByOwnerId(ctx context.Context, ownerId string) ([]hairlens.ActivityLog, error) {
	return s.ByOwnerIdFn(ctx, ownerId)
}
