package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/route-weather/internal/metrics"
)

type entry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore is a concurrency-safe in-memory session store.
// Expired sessions are rejected on Resolve and removed by Purge.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore. ttl <= 0 uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	s.sessions[token] = entry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return token, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, token string) (int64, error) {
	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return 0, ErrNotFound
	}
	return e.userID, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Purge removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Purge() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return removed
}
