package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"miniblog/pkg/apperrors"
)

type memorySession struct {
	userID    uint
	expiresAt time.Time
}

// MemorySessionStore is an in-process implementation of SessionStore.
// Sessions do not survive a restart and are not shared between replicas.
type MemorySessionStore struct {
	sessions map[string]memorySession
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemorySessionStore creates a new instance of MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *MemorySessionStore) WithClock(now func() time.Time) *MemorySessionStore {
	s.now = now
	return s
}

// Save stores or replaces a session.
func (s *MemorySessionStore) Save(_ context.Context, id string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = memorySession{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the user bound to id; expired entries are purged on read.
func (s *MemorySessionStore) Get(_ context.Context, id string) (uint, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("session: %w", apperrors.ErrNotFound)
	}
	if !s.now().Before(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return 0, fmt.Errorf("session expired: %w", apperrors.ErrNotFound)
	}
	return sess.userID, nil
}

// Delete removes a session; unknown ids are ignored.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
