package session

import (
	"context"
	"sync"
)

// Session is the per-user conversational state. It lives outside the
// reminder store: losing a session loses the dialog position and the
// selected receiver, never a scheduled reminder.
type Session struct {
	State      string
	ReceiverID *int64
}

// Store abstracts session persistence. Get returns a zero-value session for
// unknown users.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Put(ctx context.Context, userID int64, session Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStore keeps sessions in memory for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID], nil
}

func (s *MemoryStore) Put(_ context.Context, userID int64, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
