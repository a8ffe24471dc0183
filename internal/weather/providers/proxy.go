package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
)

// ProxyProvider fetches forecasts through a weather proxy that holds the key
// and forwards the WeatherAPI payload.
type ProxyProvider struct {
	name     string
	endpoint string
	httpCfg  upstream.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewProxyProvider(client *http.Client, endpoint string) *ProxyProvider {
	return &ProxyProvider{
		name:     "weather-proxy",
		endpoint: endpoint,
		httpCfg:  upstream.DefaultConfig(client),
		circuit:  upstream.NewBreaker("weather-proxy"),
	}
}

func (p *ProxyProvider) Name() string {
	return p.name
}

func (p *ProxyProvider) Forecast(ctx context.Context, q weather.Query, days int) (weather.Snapshot, error) {
	if p.endpoint == "" {
		return weather.Snapshot{}, fmt.Errorf("weather proxy: %w", upstream.ErrConfigMissing)
	}

	body, err := json.Marshal(struct {
		Q    string `json:"q"`
		Days int    `json:"days"`
	}{Q: q.Q, Days: weather.ClampDays(days)})
	if err != nil {
		return weather.Snapshot{}, err
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload forecastPayload
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return weather.Snapshot{}, err
	}
	return payload.toSnapshot(p.name), nil
}
