package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/pkg/local"
)

func newSession(updated time.Time) *conversation.Session {
	s := conversation.NewSession(local.Eng, nil)
	s.UpdatedAt = updated
	return s
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	st := NewMemoryStore(0, 0)
	ctx := context.Background()

	s := newSession(time.Now().UTC())
	s.Messages = append(s.Messages, conversation.Message{Content: "hi", IsUser: true})
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	s.Messages[0].Content = "changed"

	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	st := NewMemoryStore(0, 0)
	s := newSession(time.Now())
	if _, err := st.Get(context.Background(), s.ID); !errors.Is(err, conversation.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	st := NewMemoryStore(2, 0)
	a, b, c := newSession(now.Add(-3*time.Minute)), newSession(now.Add(-2*time.Minute)), newSession(now)
	for _, s := range []*conversation.Session{a, b, c} {
		if err := st.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if _, err := st.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected oldest session to be evicted, got %v", err)
	}
	if _, err := st.Get(ctx, c.ID); err != nil {
		t.Fatalf("newest session missing: %v", err)
	}

	st = NewMemoryStore(0, time.Hour)
	old := newSession(now.Add(-2 * time.Hour))
	if err := st.Save(ctx, old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, newSession(now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected idle session to be dropped, got %v", err)
	}
}

func TestMemoryStoreDeleteIdle(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	st := NewMemoryStore(0, 0)

	st.Save(ctx, newSession(now.Add(-time.Hour)))
	st.Save(ctx, newSession(now.Add(-time.Hour)))
	fresh := newSession(now)
	st.Save(ctx, fresh)

	n, err := st.DeleteIdle(ctx, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("delete idle: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, err := st.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session removed: %v", err)
	}

	if err := st.Delete(ctx, fresh.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, fresh.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
