package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/prompt"
	"github.com/i474232898/date-planner/internal/weather"
	"github.com/i474232898/date-planner/pkg/local"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("a turn is already in progress for this session")
	ErrEmptyMessage    = errors.New("message required")
)

// Message is one entry of a conversation. WeatherCard is only set on replies.
type Message struct {
	Content     string        `json:"content"`
	IsUser      bool          `json:"isUser"`
	WeatherCard *weather.Card `json:"weatherCard,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Session is a linear conversation. Messages are append-only and Location is
// written at most once.
type Session struct {
	ID        uuid.UUID                  `json:"id"`
	Language  local.Language             `json:"language"`
	Device    *location.ReportedPosition `json:"device,omitempty"`
	Location  *location.Snapshot         `json:"location,omitempty"`
	Messages  []Message                  `json:"messages"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

// NewSession starts an empty conversation.
func NewSession(lang local.Language, device *location.ReportedPosition) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Language:  lang,
		Device:    device,
		Messages:  make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// History converts the stored messages into prompt history.
func (s *Session) History() []prompt.HistoryMessage {
	history := make([]prompt.HistoryMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		history = append(history, prompt.HistoryMessage{Content: m.Content, IsUser: m.IsUser})
	}
	return history
}

func (s *Session) append(m Message) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = m.CreatedAt
}

// Clone returns a copy that shares nothing mutable with s.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = append(make([]Message, 0, len(s.Messages)), s.Messages...)
	if s.Location != nil {
		loc := *s.Location
		cp.Location = &loc
	}
	if s.Device != nil {
		dev := *s.Device
		cp.Device = &dev
	}
	return &cp
}
