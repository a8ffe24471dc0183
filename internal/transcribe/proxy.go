package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
)

// Proxy forwards recordings to a transcription proxy holding the credentials.
type Proxy struct {
	endpoint string
	httpCfg  upstream.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewProxy(client *http.Client, endpoint string) *Proxy {
	return &Proxy{
		endpoint: endpoint,
		httpCfg:  upstream.DefaultConfig(client),
		circuit:  upstream.NewBreaker("transcribe-proxy"),
	}
}

func (p *Proxy) Transcribe(ctx context.Context, req Request) (string, error) {
	if p.endpoint == "" {
		return "", fmt.Errorf("transcribe proxy: %w", upstream.ErrConfigMissing)
	}
	if req.AudioBase64 == "" && req.StorageKey == "" {
		return "", ErrNoAudio
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		r, err := http.NewRequest(http.MethodPost, p.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := upstream.DecodeJSON(resp, &out); err != nil {
		return "", err
	}
	return out.Transcript, nil
}
