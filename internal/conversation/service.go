package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/pkg/local"
	"github.com/i474232898/date-planner/pkg/logger"
)

// Store persists sessions. Implementations return ErrSessionNotFound for
// unknown ids and must not share mutable state with callers.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteIdle removes sessions not updated since before and returns how many.
	DeleteIdle(ctx context.Context, before time.Time) (int, error)
}

// Service runs turns against stored sessions and keeps at most one turn in
// flight per session.
type Service struct {
	store        Store
	orchestrator *Orchestrator

	mu   sync.Mutex
	busy map[uuid.UUID]struct{}
}

func NewService(store Store, orchestrator *Orchestrator) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		busy:         make(map[uuid.UUID]struct{}),
	}
}

// Create starts and stores a new session. The location is resolved here,
// while the reported device position is still fresh.
func (s *Service) Create(ctx context.Context, lang local.Language, device *location.ReportedPosition, clientIP string) (*Session, error) {
	sess := NewSession(lang, device)
	s.orchestrator.ResolveLocation(ctx, sess, clientIP)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	logger.Infof("conversation %s: created (language %s)", sess.ID, lang)
	return sess, nil
}

// Get returns a stored session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

// SubmitTurn runs one turn. ErrSessionBusy is returned while another turn on
// the same session is pending. The session is saved even when the model call
// fails, since the apology is part of the history.
func (s *Service) SubmitTurn(ctx context.Context, id uuid.UUID, text string) (Message, error) {
	if !s.acquire(id) {
		return Message{}, ErrSessionBusy
	}
	defer s.release(id)

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Message{}, err
	}

	reply, turnErr := s.orchestrator.SubmitTurn(ctx, sess, text)
	if errors.Is(turnErr, ErrEmptyMessage) {
		return Message{}, turnErr
	}

	// Persist even if the caller went away mid-turn.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.Save(saveCtx, sess); err != nil {
		return Message{}, fmt.Errorf("failed to save session: %w", err)
	}

	return reply, turnErr
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// SweepIdle removes sessions idle for longer than idle.
func (s *Service) SweepIdle(ctx context.Context, idle time.Duration) (int, error) {
	return s.store.DeleteIdle(ctx, time.Now().UTC().Add(-idle))
}

func (s *Service) acquire(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[id]; ok {
		return false
	}
	s.busy[id] = struct{}{}
	return true
}

func (s *Service) release(id uuid.UUID) {
	s.mu.Lock()
	delete(s.busy, id)
	s.mu.Unlock()
}
