package catalog

import (
	"context"
	"sync"
)

// MemSnapshotStore keeps the last saved snapshot in process memory.
type MemSnapshotStore struct {
	mu   sync.RWMutex
	body []byte
}

func NewMemSnapshotStore() *MemSnapshotStore {
	return &MemSnapshotStore{}
}

func (s *MemSnapshotStore) Ping(ctx context.Context) error { return nil }

func (s *MemSnapshotStore) Save(ctx context.Context, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.body = append([]byte(nil), body...)
	return nil
}

func (s *MemSnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.body == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.body...), true, nil
}
