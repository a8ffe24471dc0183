package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1/forecast.json"
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Payload returns the raw forecast.json body, for the weather proxy endpoint.
func (p *WeatherAPIProvider) Payload(ctx context.Context, q string, days int) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY: %w", upstream.ErrConfigMissing)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", q)
		values.Set("days", strconv.Itoa(weather.ClampDays(days)))
		values.Set("aqi", "no")
		values.Set("alerts", "yes")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: weatherapi returned invalid json", upstream.ErrParse)
	}
	return body, nil
}

func (p *WeatherAPIProvider) Forecast(ctx context.Context, q weather.Query, days int) (weather.Snapshot, error) {
	raw, err := p.Payload(ctx, q.Q, days)
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload forecastPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: %v", upstream.ErrParse, err)
	}
	return payload.toSnapshot(p.name), nil
}
