package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/i474232898/date-planner/internal/prompt"
	"github.com/i474232898/date-planner/internal/upstream"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	apiKey string
	model  string
	genCfg GenerationConfig
}

func NewOpenAIClient(httpClient *http.Client, apiKey, model, baseURL string, genCfg GenerationConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		apiKey: apiKey,
		model:  model,
		genCfg: genCfg,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Generate(ctx context.Context, req prompt.Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY: %w", upstream.ErrConfigMissing)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(req.Entries),
		Temperature: c.genCfg.Temperature,
		TopP:        c.genCfg.TopP,
		MaxTokens:   c.genCfg.MaxOutputTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &upstream.StatusError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", upstream.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// convertMessages keeps the persona pair as a user/assistant exchange so the
// request has the same shape for every backend.
func convertMessages(entries []prompt.Entry) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(entries))
	for _, e := range entries {
		role := openai.ChatMessageRoleUser
		if e.Role == prompt.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: e.Text,
		})
	}
	return result
}
