package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/interpret"
	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/pkg/local"
)

type mapStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mapStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mapStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mapStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mapStore) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// blockingGateway holds a turn open until released.
type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) Respond(ctx context.Context, req llm.TurnRequest) (interpret.Result, error) {
	close(g.entered)
	<-g.release
	return interpret.Result{ResponseText: "done"}, nil
}

func TestServicePersistsTurns(t *testing.T) {
	store := newMapStore()
	gateway := &stubGateway{result: interpret.Result{ResponseText: "hello"}}
	svc := NewService(store, NewOrchestrator(&stubResolver{snap: location.Unknown()}, &stubFetcher{}, gateway, nil))

	sess, err := svc.Create(context.Background(), local.Eng, nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SubmitTurn(context.Background(), sess.ID, "hi"); err != nil {
		t.Fatalf("turn: %v", err)
	}

	stored, err := svc.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Messages) != 2 || stored.Location == nil || stored.Location.Source != location.SourceUnknown {
		t.Fatalf("turn not persisted: %+v", stored)
	}
}

func TestServiceCreateResolvesLocation(t *testing.T) {
	resolver := &stubResolver{snap: tokyoLocation()}
	svc := NewService(newMapStore(), NewOrchestrator(resolver, &stubFetcher{}, &stubGateway{result: interpret.Result{ResponseText: "ok"}}, nil))

	pos := location.Position{Latitude: 35.6, Longitude: 139.7}
	device := &location.ReportedPosition{Position: &pos, ReportedAt: time.Now(), MaxAge: location.DefaultMaxAge}
	sess, err := svc.Create(context.Background(), local.Eng, device, "203.0.113.7")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resolver.calls != 1 || resolver.gotIP != "203.0.113.7" {
		t.Fatalf("client address not passed to resolver: %d %q", resolver.calls, resolver.gotIP)
	}
	if _, ok := resolver.got.(location.ReportedPosition); !ok {
		t.Fatalf("device position not passed to resolver: %T", resolver.got)
	}

	stored, err := svc.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Location == nil || stored.Location.City != "Tokyo" {
		t.Fatalf("location not stored at creation: %+v", stored.Location)
	}

	if _, err := svc.SubmitTurn(context.Background(), sess.ID, "hi"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if resolver.calls != 1 {
		t.Fatalf("location resolved again on the turn: %d calls", resolver.calls)
	}
}

func TestServiceUnknownSession(t *testing.T) {
	svc := NewService(newMapStore(), NewOrchestrator(&stubResolver{}, &stubFetcher{}, &stubGateway{}, nil))
	if _, err := svc.SubmitTurn(context.Background(), uuid.New(), "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceRejectsOverlappingTurns(t *testing.T) {
	gateway := &blockingGateway{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(newMapStore(), NewOrchestrator(&stubResolver{snap: location.Unknown()}, &stubFetcher{}, gateway, nil))

	sess, err := svc.Create(context.Background(), local.Eng, nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitTurn(context.Background(), sess.ID, "first")
		done <- err
	}()

	<-gateway.entered
	if _, err := svc.SubmitTurn(context.Background(), sess.ID, "second"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	close(gateway.release)
	if err := <-done; err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
}

func TestServiceSweepIdle(t *testing.T) {
	store := newMapStore()
	svc := NewService(store, NewOrchestrator(&stubResolver{snap: location.Unknown()}, &stubFetcher{}, &stubGateway{}, nil))

	old, _ := svc.Create(context.Background(), local.Eng, nil, "")
	stale := old.Clone()
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	store.Save(context.Background(), stale)
	fresh, _ := svc.Create(context.Background(), local.Jpn, nil, "")

	n, err := svc.SweepIdle(context.Background(), time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("expected one swept session, got %d, %v", n, err)
	}
	if _, err := svc.Get(context.Background(), fresh.ID); err != nil {
		t.Fatalf("fresh session removed: %v", err)
	}
	if _, err := svc.Get(context.Background(), old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("stale session kept: %v", err)
	}
}
