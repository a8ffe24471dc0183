package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/i474232898/date-planner/internal/interpret"
	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
	"github.com/i474232898/date-planner/pkg/local"
)

type stubResolver struct {
	snap  location.Snapshot
	calls int
	got   location.DeviceLocator
	gotIP string
}

func (r *stubResolver) ResolveFor(ctx context.Context, d location.DeviceLocator, clientIP string) location.Snapshot {
	r.calls++
	r.got, r.gotIP = d, clientIP
	return r.snap
}

type stubFetcher struct {
	snap    weather.Snapshot
	err     error
	calls   int
	gotDays int
}

func (f *stubFetcher) Fetch(ctx context.Context, loc location.Snapshot, days int) (weather.Snapshot, error) {
	f.calls++
	f.gotDays = days
	return f.snap, f.err
}

type stubGateway struct {
	result interpret.Result
	err    error
	got    llm.TurnRequest
}

func (g *stubGateway) Respond(ctx context.Context, req llm.TurnRequest) (interpret.Result, error) {
	g.got = req
	return g.result, g.err
}

func tokyoLocation() location.Snapshot {
	lat, lon := 35.6762, 139.6503
	return location.Snapshot{City: "Tokyo", Country: "Japan", Latitude: &lat, Longitude: &lon, Source: location.SourceGPS}
}

func tokyoForecast() weather.Snapshot {
	return weather.Snapshot{
		Location: weather.Place{Name: "Tokyo", Region: "Tokyo", Country: "Japan"},
		Current:  weather.Current{TempC: 18, FeelsLikeC: 17, Condition: "Sunny", WindKph: 10, Humidity: 55},
		Forecast: []weather.ForecastDay{
			{Date: "2026-10-18", MaxTempC: 21, MinTempC: 14, AvgTempC: 17, Condition: "Sunny"},
			{Date: "2026-10-19", MaxTempC: 19, MinTempC: 13, AvgTempC: 16, Condition: "Light rain", RainChance: 70, AvgHumidity: 80, MaxWindKph: 20},
		},
	}
}

func TestSubmitTurnTokyoTomorrow(t *testing.T) {
	resolver := &stubResolver{snap: tokyoLocation()}
	fetcher := &stubFetcher{snap: tokyoForecast()}
	gateway := &stubGateway{}
	gateway.result = interpret.Interpret("[SHOW_WEATHER_CARD]\n明日は雨の予報です。屋内のカフェはいかがですか？")

	o := NewOrchestrator(resolver, fetcher, gateway, nil)
	sess := NewSession(local.Jpn, nil)

	reply, err := o.SubmitTurn(context.Background(), sess, "明日の天気は？")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.gotDays != 2 {
		t.Fatalf("expected 2 forecast days, got %d", fetcher.gotDays)
	}
	if reply.WeatherCard == nil {
		t.Fatal("expected a weather card")
	}
	card := reply.WeatherCard
	if card.DayIndex != 1 || card.Temperature != 16 || card.FeelsLike != 16 || card.Precipitation != 70 {
		t.Fatalf("expected card from forecast day 1, got %+v", card)
	}
	if strings.Contains(reply.Content, interpret.Marker) || reply.Content != "明日は雨の予報です。屋内のカフェはいかがですか？" {
		t.Fatalf("unexpected reply content %q", reply.Content)
	}

	if gateway.got.UserLocation != "Tokyo, Japan" || !strings.Contains(gateway.got.WeatherData, "📍 Tokyo, Tokyo, Japan") {
		t.Fatalf("context not passed to the model: %+v", gateway.got)
	}
	if len(gateway.got.ConversationHistory) != 0 {
		t.Fatalf("first turn should have no history, got %+v", gateway.got.ConversationHistory)
	}

	if len(sess.Messages) != 2 || !sess.Messages[0].IsUser || sess.Messages[1].IsUser {
		t.Fatalf("unexpected history %+v", sess.Messages)
	}
}

func TestSubmitTurnMarkerWithoutWeatherHasNoCard(t *testing.T) {
	fetcher := &stubFetcher{err: weather.ErrWeatherUnavailable}
	gateway := &stubGateway{result: interpret.Result{ResponseText: "Probably sunny!", ShowWeatherCard: true}}

	o := NewOrchestrator(&stubResolver{snap: tokyoLocation()}, fetcher, gateway, nil)
	reply, err := o.SubmitTurn(context.Background(), NewSession(local.Eng, nil), "weather today?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.WeatherCard != nil {
		t.Fatalf("expected no card, got %+v", reply.WeatherCard)
	}
	if gateway.got.WeatherData != "" || gateway.got.UserLocation != "Tokyo, Japan" {
		t.Fatalf("unexpected context %+v", gateway.got)
	}
}

func TestSubmitTurnNoCardWithoutMarker(t *testing.T) {
	gateway := &stubGateway{result: interpret.Result{ResponseText: "Try the ramen place."}}
	o := NewOrchestrator(&stubResolver{snap: tokyoLocation()}, &stubFetcher{snap: tokyoForecast()}, gateway, nil)

	reply, err := o.SubmitTurn(context.Background(), NewSession(local.Eng, nil), "dinner ideas?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.WeatherCard != nil {
		t.Fatalf("unexpected card %+v", reply.WeatherCard)
	}
}

func TestSubmitTurnUnknownLocationSkipsWeather(t *testing.T) {
	fetcher := &stubFetcher{snap: tokyoForecast()}
	gateway := &stubGateway{result: interpret.Result{ResponseText: "Sure."}}

	o := NewOrchestrator(&stubResolver{snap: location.Unknown()}, fetcher, gateway, nil)
	if _, err := o.SubmitTurn(context.Background(), NewSession(local.Eng, nil), "what's the weather"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("weather should not be fetched without a location")
	}
	if gateway.got.UserLocation != "" || gateway.got.WeatherData != "" {
		t.Fatalf("unexpected context %+v", gateway.got)
	}
}

func TestSubmitTurnResolvesLocationOnce(t *testing.T) {
	resolver := &stubResolver{snap: tokyoLocation()}
	gateway := &stubGateway{result: interpret.Result{ResponseText: "ok"}}
	o := NewOrchestrator(resolver, &stubFetcher{snap: tokyoForecast()}, gateway, nil)

	pos := location.Position{Latitude: 35.6, Longitude: 139.7}
	sess := NewSession(local.Eng, &location.ReportedPosition{Position: &pos})
	for _, text := range []string{"hi", "and tomorrow?"} {
		if _, err := o.SubmitTurn(context.Background(), sess, text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolution, got %d", resolver.calls)
	}
	if _, ok := resolver.got.(location.ReportedPosition); !ok {
		t.Fatalf("device position not passed to resolver: %T", resolver.got)
	}
	if len(gateway.got.ConversationHistory) != 2 || gateway.got.ConversationHistory[1].Content != "ok" {
		t.Fatalf("history not replayed: %+v", gateway.got.ConversationHistory)
	}
}

func TestSubmitTurnModelFailureAppendsApology(t *testing.T) {
	gateway := &stubGateway{err: upstream.ErrConfigMissing}
	o := NewOrchestrator(&stubResolver{snap: location.Unknown()}, &stubFetcher{}, gateway, nil)
	sess := NewSession(local.Eng, nil)

	reply, err := o.SubmitTurn(context.Background(), sess, "hello")
	if !errors.Is(err, upstream.ErrConfigMissing) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if reply.Content != "Sorry, I encountered an error. Please check your API key configuration and try again." {
		t.Fatalf("unexpected apology %q", reply.Content)
	}
	if len(sess.Messages) != 2 || sess.Messages[1].Content != reply.Content {
		t.Fatalf("apology not appended: %+v", sess.Messages)
	}
}

func TestSubmitTurnRejectsEmptyText(t *testing.T) {
	o := NewOrchestrator(&stubResolver{}, &stubFetcher{}, &stubGateway{}, nil)
	sess := NewSession(local.Eng, nil)
	if _, err := o.SubmitTurn(context.Background(), sess, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(sess.Messages) != 0 {
		t.Fatalf("nothing should be appended")
	}
}
