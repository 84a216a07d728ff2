package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/route-weather/internal/auth"
	"github.com/i474232898/route-weather/internal/history"
)

// MemoryStore is a concurrency-safe in-memory implementation of the user and
// search history stores.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[string]auth.User
	nextUserID int64

	// key: user id, value: records in append order
	records      map[int64][]history.Record
	nextRecordID int64

	// max records kept per user (0 = unlimited)
	maxHistory int

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]auth.User),
		records:    make(map[int64][]history.Record),
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

func (s *MemoryStore) InsertUser(ctx context.Context, username string, passwordHash []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return 0, auth.ErrUsernameTaken
	}

	s.nextUserID++
	hash := make([]byte, len(passwordHash))
	copy(hash, passwordHash)
	s.users[username] = auth.User{ID: s.nextUserID, Username: username, PasswordHash: hash}
	return s.nextUserID, nil
}

func (s *MemoryStore) UserByName(ctx context.Context, username string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

// Append stores a record and enforces the per-user retention limit.
func (s *MemoryStore) Append(ctx context.Context, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRecordID++
	rec.ID = s.nextRecordID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	list := append(s.records[rec.UserID], rec)
	if s.maxHistory > 0 && len(list) > s.maxHistory {
		over := len(list) - s.maxHistory
		list = list[over:]
	}
	s.records[rec.UserID] = list
	return nil
}

// ListFor returns the user's records, most recent first.
func (s *MemoryStore) ListFor(ctx context.Context, userID int64, limit int) ([]history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[userID]
	result := make([]history.Record, len(list))
	copy(result, list)

	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, id int64) (history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[userID] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return history.Record{}, history.ErrNotFound
}
