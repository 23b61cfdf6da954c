package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by a mutex-guarded map.
//
// Good for single-server deployments and tests. Sessions are lost on
// restart (users just log in again) and are invisible to other processes —
// use the redis store when either matters.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID    int64
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memorySession),
	}
}

var _ Store = (*MemoryStore)(nil)

// Get returns the user ID for a live session.
//
// Expired entries are deleted lazily, on the read that discovers them.
// There is no background sweeper: abandoned sessions linger as a few dozen
// bytes until their ID is presented again or the process restarts, which is
// a fine trade for not running a goroutine.
func (s *MemoryStore) Get(_ context.Context, id string) (int64, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return 0, ErrNoSession
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return 0, ErrNoSession
	}

	return sess.userID, nil
}

func (s *MemoryStore) Set(_ context.Context, id string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = memorySession{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]memorySession)
	return nil
}
