package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
)

const DefaultSpeechEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleSpeech calls the Speech-to-Text REST API with an API key.
type GoogleSpeech struct {
	apiKey          string
	endpoint        string
	defaultLanguage string
	httpCfg         upstream.HTTPClientConfig
	circuit         *gobreaker.CircuitBreaker
}

func NewGoogleSpeech(client *http.Client, apiKey, endpoint string) *GoogleSpeech {
	if endpoint == "" {
		endpoint = DefaultSpeechEndpoint
	}
	return &GoogleSpeech{
		apiKey:          apiKey,
		endpoint:        endpoint,
		defaultLanguage: "en-US",
		httpCfg:         upstream.DefaultConfig(client),
		circuit:         upstream.NewBreaker("speech"),
	}
}

type recognitionConfig struct {
	Encoding                   Encoding `json:"encoding"`
	SampleRateHertz            int      `json:"sampleRateHertz,omitempty"`
	LanguageCode               string   `json:"languageCode"`
	EnableAutomaticPunctuation bool     `json:"enableAutomaticPunctuation"`
}

type recognitionAudio struct {
	Content string `json:"content,omitempty"`
	URI     string `json:"uri,omitempty"`
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GOOGLE_SPEECH_API_KEY: %w", upstream.ErrConfigMissing)
	}
	body, err := g.buildRequest(req)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
	resp, err := upstream.Do(ctx, g.httpCfg, g.circuit, func() (*http.Request, error) {
		r, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return "", err
	}

	var out recognizeResponse
	if err := upstream.DecodeJSON(resp, &out); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		if len(r.Alternatives) > 0 && r.Alternatives[0].Transcript != "" {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleSpeech) buildRequest(req Request) (recognizeRequest, error) {
	audio := recognitionAudio{}
	switch {
	case req.AudioBase64 != "":
		audio.Content = StripDataURL(req.AudioBase64)
	case req.StorageKey != "":
		audio.URI = req.StorageKey
	default:
		return recognizeRequest{}, ErrNoAudio
	}

	lang := req.LanguageCode
	if lang == "" {
		lang = g.defaultLanguage
	}
	enc := EncodingForMime(req.MimeType)

	return recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   enc,
			SampleRateHertz:            SampleRateFor(enc),
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
		},
		Audio: audio,
	}, nil
}
