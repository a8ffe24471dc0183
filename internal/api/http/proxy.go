package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/transcribe"
	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/pkg/local"
	"github.com/i474232898/date-planner/pkg/logger"
)

// The proxy routes hold credentials server side. Their error body is
// {"error": "..."}, with the upstream status passed through where known.
func registerProxyRoutes(v1 fiber.Router, deps Dependencies) {
	v1.Post("/chat", func(c *fiber.Ctx) error {
		var req llm.TurnRequest
		if err := c.BodyParser(&req); err != nil {
			return proxyFail(c, fiber.StatusBadRequest, "invalid JSON body")
		}
		req.Message = strings.TrimSpace(req.Message)
		if err := validate.Struct(req); err != nil {
			return proxyFail(c, fiber.StatusBadRequest, "message required")
		}
		if req.Language == "" {
			req.Language = deps.DefaultLanguage
		}
		req.Language = local.ParseLanguage(string(req.Language))

		if deps.Model == nil {
			return proxyError(c, fmt.Errorf("model: %w", upstream.ErrConfigMissing))
		}

		res, err := deps.Model.Respond(c.UserContext(), req)
		if err != nil {
			logger.Errorf("proxy: chat failed: %v", err)
			return proxyError(c, err)
		}
		return c.JSON(res)
	})

	weatherHandler := func(c *fiber.Ctx) error {
		var req weatherRequest
		if c.Method() == fiber.MethodGet {
			req.Q = c.Query("q")
			req.Days = c.QueryInt("days", 1)
		} else if err := c.BodyParser(&req); err != nil {
			return proxyFail(c, fiber.StatusBadRequest, "invalid JSON body")
		}
		if req.Days == 0 {
			req.Days = 1
		}
		if err := validate.Struct(req); err != nil {
			return proxyFail(c, fiber.StatusBadRequest, "q (query) required")
		}

		if deps.Weather == nil {
			return proxyError(c, fmt.Errorf("weather: %w", upstream.ErrConfigMissing))
		}

		raw, err := deps.Weather.Payload(c.UserContext(), req.Q, req.Days)
		if err != nil {
			logger.Warnf("proxy: weather lookup for %q failed: %v", req.Q, err)
			return proxyError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}
	v1.Get("/weather", weatherHandler)
	v1.Post("/weather", weatherHandler)

	v1.Post("/transcribe", func(c *fiber.Ctx) error {
		var req transcribe.Request
		if err := c.BodyParser(&req); err != nil {
			return proxyFail(c, fiber.StatusBadRequest, "invalid JSON body")
		}
		if req.AudioBase64 == "" && req.StorageKey == "" {
			return proxyFail(c, fiber.StatusBadRequest, transcribe.ErrNoAudio.Error())
		}

		if deps.Transcriber == nil {
			return proxyError(c, fmt.Errorf("transcription: %w", upstream.ErrConfigMissing))
		}

		text, err := deps.Transcriber.Transcribe(c.UserContext(), req)
		if err != nil {
			logger.Errorf("proxy: transcription failed: %v", err)
			return proxyError(c, err)
		}
		return c.JSON(fiber.Map{"transcript": text})
	})
}

type weatherRequest struct {
	Q    string `json:"q" validate:"required"`
	Days int    `json:"days"`
}

func proxyFail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func proxyError(c *fiber.Ctx, err error) error {
	return proxyFail(c, statusFor(err), err.Error())
}

// statusFor maps an upstream error to the status the proxy answers with.
func statusFor(err error) int {
	var se *upstream.StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, transcribe.ErrNoAudio):
		return fiber.StatusBadRequest
	case errors.Is(err, upstream.ErrCircuitOpen):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, upstream.ErrParse), errors.Is(err, upstream.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
