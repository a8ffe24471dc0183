// Package llm talks to the language model, directly or through the model proxy.
package llm

import (
	"context"
	"fmt"

	"github.com/i474232898/date-planner/internal/interpret"
	"github.com/i474232898/date-planner/internal/prompt"
	"github.com/i474232898/date-planner/pkg/local"
)

// GenerationConfig are the sampling settings sent with every request.
type GenerationConfig struct {
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

// DefaultGenerationConfig matches what the assistant has always used.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.9,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

// Client returns raw model text for a composed request.
type Client interface {
	Name() string
	Generate(ctx context.Context, req prompt.Request) (string, error)
}

// TurnRequest is one turn as the model proxy receives it.
type TurnRequest struct {
	Message             string                  `json:"message" validate:"required"`
	Language            local.Language          `json:"language"`
	ConversationHistory []prompt.HistoryMessage `json:"conversationHistory"`
	UserLocation        string                  `json:"userLocation,omitempty"`
	WeatherData         string                  `json:"weatherData,omitempty"`
}

// Gateway produces an interpreted reply for a turn.
type Gateway interface {
	Respond(ctx context.Context, req TurnRequest) (interpret.Result, error)
}

// DirectGateway composes, calls the model and interprets in-process.
type DirectGateway struct {
	client Client
}

func NewDirectGateway(client Client) *DirectGateway {
	return &DirectGateway{client: client}
}

func (g *DirectGateway) Respond(ctx context.Context, req TurnRequest) (interpret.Result, error) {
	composed := prompt.Compose(prompt.Input{
		UserText:       req.Message,
		Language:       local.ParseLanguage(string(req.Language)),
		History:        req.ConversationHistory,
		LocationLabel:  req.UserLocation,
		WeatherSummary: req.WeatherData,
	})

	raw, err := g.client.Generate(ctx, composed)
	if err != nil {
		return interpret.Result{}, fmt.Errorf("%s: %w", g.client.Name(), err)
	}
	return interpret.Interpret(raw), nil
}
