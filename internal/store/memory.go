package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/conversation"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = conversation.ErrSessionNotFound

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu sync.RWMutex

	data map[uuid.UUID]*conversation.Session

	// retention configuration
	maxSessions int           // max number of sessions kept
	maxAge      time.Duration // optional max idle age, enforced on write
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[uuid.UUID]*conversation.Session),
		maxSessions: maxSessions,
		maxAge:      maxAge,
	}
}

// Save stores a copy of the session and enforces retention.
func (s *MemoryStore) Save(ctx context.Context, sess *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.ID] = sess.Clone()

	// Enforce retention by age.
	if s.maxAge > 0 {
		s.deleteIdleLocked(time.Now().UTC().Add(-s.maxAge))
	}

	// Enforce retention by count, evicting the least recently updated.
	if s.maxSessions > 0 && len(s.data) > s.maxSessions {
		ids := make([]uuid.UUID, 0, len(s.data))
		for id := range s.data {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return s.data[ids[i]].UpdatedAt.Before(s.data[ids[j]].UpdatedAt)
		})
		for _, id := range ids[:len(ids)-s.maxSessions] {
			if id != sess.ID {
				delete(s.data, id)
			}
		}
	}
	return nil
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Delete removes a session. Unknown ids are not an error.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// DeleteIdle removes sessions last updated before the cutoff.
func (s *MemoryStore) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteIdleLocked(before), nil
}

func (s *MemoryStore) deleteIdleLocked(before time.Time) int {
	n := 0
	for id, sess := range s.data {
		if sess.UpdatedAt.Before(before) {
			delete(s.data, id)
			n++
		}
	}
	return n
}
