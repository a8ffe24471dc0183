package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/interpret"
	"github.com/i474232898/date-planner/internal/upstream"
)

// ProxyGateway sends the turn to a model proxy, which composes and
// interprets server side.
type ProxyGateway struct {
	endpoint string
	httpCfg  upstream.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewProxyGateway(client *http.Client, endpoint string) *ProxyGateway {
	cfg := upstream.DefaultConfig(client)
	// Turns are never retried.
	cfg.Backoff.MaxRetries = 0
	return &ProxyGateway{
		endpoint: endpoint,
		httpCfg:  cfg,
		circuit:  upstream.NewBreaker("model-proxy"),
	}
}

func (g *ProxyGateway) Respond(ctx context.Context, req TurnRequest) (interpret.Result, error) {
	if g.endpoint == "" {
		return interpret.Result{}, fmt.Errorf("model proxy: %w", upstream.ErrConfigMissing)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return interpret.Result{}, err
	}

	resp, err := upstream.Do(ctx, g.httpCfg, g.circuit, func() (*http.Request, error) {
		r, err := http.NewRequest(http.MethodPost, g.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return interpret.Result{}, fmt.Errorf("model proxy: %w", err)
	}

	var out struct {
		Response        string `json:"response"`
		ShowWeatherCard bool   `json:"showWeatherCard"`
		Error           string `json:"error"`
	}
	if err := upstream.DecodeJSON(resp, &out); err != nil {
		return interpret.Result{}, err
	}
	if out.Error != "" {
		return interpret.Result{}, fmt.Errorf("%w: %s", upstream.ErrUpstream, out.Error)
	}

	// The proxy already interprets, but its text must never leak the marker.
	res := interpret.Interpret(out.Response)
	res.ShowWeatherCard = res.ShowWeatherCard || out.ShowWeatherCard
	return res, nil
}
