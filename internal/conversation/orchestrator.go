package conversation

import (
	"context"
	"strings"

	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/weather"
	"github.com/i474232898/date-planner/pkg/local"
	"github.com/i474232898/date-planner/pkg/logger"
)

// LocationResolver resolves a session's location. It never fails.
type LocationResolver interface {
	ResolveFor(ctx context.Context, device location.DeviceLocator, clientIP string) location.Snapshot
}

// WeatherFetcher forecasts for a resolved location.
type WeatherFetcher interface {
	Fetch(ctx context.Context, loc location.Snapshot, requestedDays int) (weather.Snapshot, error)
}

var apology = local.NewTextSet(
	"Sorry, I encountered an error. Please check your API key configuration and try again.",
	local.NewTrans(local.Jpn, "申し訳ありません。エラーが発生しました。APIキーの設定を確認して、もう一度お試しください。"),
)

// Orchestrator runs one turn: location, weather, model call, interpretation.
type Orchestrator struct {
	resolver LocationResolver
	weather  WeatherFetcher
	gateway  llm.Gateway
	budget   *HistoryBudget
}

func NewOrchestrator(resolver LocationResolver, fetcher WeatherFetcher, gateway llm.Gateway, budget *HistoryBudget) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		weather:  fetcher,
		gateway:  gateway,
		budget:   budget,
	}
}

// SubmitTurn appends the user's message and a reply to s and returns the
// reply. When the model call fails the reply is a localized apology and the
// underlying error is returned alongside it. Callers must not run two turns
// on the same session at once.
func (o *Orchestrator) SubmitTurn(ctx context.Context, s *Session, userText string) (Message, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return Message{}, ErrEmptyMessage
	}

	o.ResolveLocation(ctx, s, "")

	var (
		locationLabel  string
		weatherSummary string
		card           *weather.Card
	)
	if s.Location.Usable() {
		locationLabel = s.Location.Label()

		offset := weather.ParseDayOffset(userText, s.Language)
		snap, err := o.weather.Fetch(ctx, *s.Location, offset+1)
		if err != nil {
			logger.Warnf("conversation %s: continuing without weather: %v", s.ID, err)
		} else {
			weatherSummary = weather.Summary(snap, s.Language)
			c := weather.ExtractCard(snap, offset)
			card = &c
		}
	}

	history := s.History()
	if o.budget != nil {
		history = o.budget.Trim(history)
	}

	s.append(Message{Content: userText, IsUser: true})

	res, err := o.gateway.Respond(ctx, llm.TurnRequest{
		Message:             userText,
		Language:            s.Language,
		ConversationHistory: history,
		UserLocation:        locationLabel,
		WeatherData:         weatherSummary,
	})
	if err != nil {
		logger.Errorf("conversation %s: model call failed: %v", s.ID, err)
		reply := Message{Content: apology.Text(s.Language)}
		s.append(reply)
		return reply, err
	}

	reply := Message{Content: res.ResponseText}
	if res.ShowWeatherCard {
		if card != nil {
			reply.WeatherCard = card
		} else {
			logger.Debugf("conversation %s: model asked for a weather card but no forecast is available", s.ID)
		}
	}
	s.append(reply)
	return reply, nil
}

// ResolveLocation sets s.Location unless it is already set. clientIP is the
// user's address as seen by the server, or empty when unknown.
func (o *Orchestrator) ResolveLocation(ctx context.Context, s *Session, clientIP string) {
	if s.Location != nil {
		return
	}
	loc := o.resolver.ResolveFor(ctx, deviceOf(s), clientIP)
	s.Location = &loc
	logger.Infof("conversation %s: location resolved via %s (%s)", s.ID, loc.Source, loc.Label())
}

func deviceOf(s *Session) location.DeviceLocator {
	if s.Device == nil {
		return nil
	}
	return *s.Device
}
