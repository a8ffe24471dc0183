package httpapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/transcribe"
	"github.com/i474232898/date-planner/pkg/local"
)

var validate = validator.New()

// SessionService is the conversation API the session routes need.
type SessionService interface {
	Create(ctx context.Context, lang local.Language, device *location.ReportedPosition, clientIP string) (*conversation.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*conversation.Session, error)
	SubmitTurn(ctx context.Context, id uuid.UUID, text string) (conversation.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// WeatherSource returns the raw forecast payload for a query.
type WeatherSource interface {
	Payload(ctx context.Context, q string, days int) (json.RawMessage, error)
}

// Dependencies are the collaborators behind the routes. A nil dependency
// makes its routes answer as unconfigured.
type Dependencies struct {
	Sessions    SessionService
	Model       llm.Gateway
	Weather     WeatherSource
	Transcriber transcribe.Transcriber

	DefaultLanguage local.Language
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.DefaultLanguage == "" {
		deps.DefaultLanguage = local.Eng
	}

	v1 := app.Group("/api/v1")

	registerProxyRoutes(v1, deps)
	registerSessionRoutes(v1, deps)
}

// ErrorHandler is the centralized error response for non-proxy routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
