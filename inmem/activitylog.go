package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/hairlens/hairlens"
)

type ActivityStore struct {
	lastId int64
	logs   map[string][]hairlens.ActivityLog
	mutex  sync.RWMutex
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		lastId: 0,
		logs:   make(map[string][]hairlens.ActivityLog),
	}
}

func (s *ActivityStore) AddLog(ctx context.Context, ownerId string, activity hairlens.Activity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastId++
	s.logs[ownerId] = append(s.logs[ownerId], hairlens.ActivityLog{
		Id:        s.lastId,
		CreatedAt: time.Now().UTC(),
		OwnerId:   ownerId,
		Name:      activity.Name,
		Data:      activity.Data,
	})
	return nil
}

func (s *ActivityStore) ByOwnerId(ctx context.Context, ownerId string) ([]hairlens.ActivityLog, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	logs := s.logs[ownerId]
	newestFirst := make([]hairlens.ActivityLog, len(logs))
	for i, l := range logs {
		newestFirst[len(logs)-1-i] = l
	}
	return newestFirst, nil
}
