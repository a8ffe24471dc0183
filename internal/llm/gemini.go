package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/prompt"
	"github.com/i474232898/date-planner/internal/upstream"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiClient calls the Generative Language generateContent endpoint.
type GeminiClient struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	genCfg  GenerationConfig
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGeminiClient(client *http.Client, apiKey, model, baseURL string, genCfg GenerationConfig) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		name:    "gemini",
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		genCfg:  genCfg,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("gemini"),
	}
}

func (c *GeminiClient) Name() string {
	return c.name
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) Generate(ctx context.Context, req prompt.Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY: %w", upstream.ErrConfigMissing)
	}

	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Entries)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.genCfg.Temperature,
			TopK:            c.genCfg.TopK,
			TopP:            c.genCfg.TopP,
			MaxOutputTokens: c.genCfg.MaxOutputTokens,
		},
	}
	for _, e := range req.Entries {
		body.Contents = append(body.Contents, geminiContent{
			Role:  string(e.Role),
			Parts: []geminiPart{{Text: e.Text}},
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	resp, err := upstream.Do(ctx, c.httpCfg, c.circuit, func() (*http.Request, error) {
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

	var out geminiResponse
	if err := upstream.DecodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", upstream.ErrUpstream, out.Error.Message)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", upstream.ErrUpstream)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
