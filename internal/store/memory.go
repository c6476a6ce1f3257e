package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process UserStateRepo. Documents are copied in and
// out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*UserState
	// tombstones holds the last version of deleted users.
	tombstones map[string]int64
}

// NewMemoryStore returns an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*UserState),
		tombstones: make(map[string]int64),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s *UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored int64
	if cur, ok := m.users[s.UserID]; ok {
		stored = cur.Version
	}
	if stored != s.Version {
		return ErrVersionConflict
	}
	c := s.Clone()
	c.Version = s.Version + 1
	if tomb, ok := m.tombstones[s.UserID]; ok && s.Version == 0 {
		c.Version = tomb + 1
		delete(m.tombstones, s.UserID)
	}
	m.users[s.UserID] = c
	s.Version = c.Version
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.users[userID]; ok {
		m.tombstones[userID] = cur.Version + 1
		delete(m.users, userID)
	}
	return nil
}
