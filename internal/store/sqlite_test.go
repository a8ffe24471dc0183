package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/weather"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "sessions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStoreRoundTripsSession(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	lat, lon := 35.66, 139.7
	s := newSession(time.Now().UTC())
	s.Device = &location.ReportedPosition{Position: &location.Position{Latitude: lat, Longitude: lon}, MaxAge: location.DefaultMaxAge}
	s.Location = &location.Snapshot{City: "Shibuya", Latitude: &lat, Longitude: &lon, Source: location.SourceGPS}
	s.Messages = append(s.Messages,
		conversation.Message{Content: "picnic tomorrow?", IsUser: true, CreatedAt: time.Now().UTC()},
		conversation.Message{Content: "Sounds lovely.", WeatherCard: &weather.Card{Location: "Shibuya", DayIndex: 1, Condition: "Sunny"}, CreatedAt: time.Now().UTC()},
	)
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A second save appends only the new message.
	s.Messages = append(s.Messages, conversation.Message{Content: "thanks", IsUser: true, CreatedAt: time.Now().UTC()})
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Language != s.Language {
		t.Errorf("language = %q, want %q", got.Language, s.Language)
	}
	if got.Location == nil || got.Location.City != "Shibuya" || !got.Location.HasCoordinates() {
		t.Errorf("unexpected location: %+v", got.Location)
	}
	if got.Device == nil || got.Device.Position == nil || got.Device.Position.Latitude != lat {
		t.Errorf("unexpected device: %+v", got.Device)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	if !got.Messages[0].IsUser || got.Messages[1].IsUser {
		t.Errorf("sender flags not preserved: %+v", got.Messages)
	}
	if got.Messages[1].WeatherCard == nil || got.Messages[1].WeatherCard.DayIndex != 1 {
		t.Errorf("weather card not preserved: %+v", got.Messages[1])
	}
	if got.Messages[2].Content != "thanks" {
		t.Errorf("unexpected last message: %+v", got.Messages[2])
	}
}

func TestSQLiteStoreDeleteAndIdle(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := newSession(now.Add(-2 * time.Hour))
	stale.Messages = append(stale.Messages, conversation.Message{Content: "hello", IsUser: true, CreatedAt: stale.UpdatedAt})
	fresh := newSession(now)
	for _, s := range []*conversation.Session{stale, fresh} {
		if err := st.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	n, err := st.DeleteIdle(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete idle: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if _, err := st.Get(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale session gone, got %v", err)
	}

	if err := st.Delete(ctx, fresh.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, fresh.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
