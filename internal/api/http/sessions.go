package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/pkg/local"
)

func registerSessionRoutes(v1 fiber.Router, deps Dependencies) {
	sessions := v1.Group("/sessions", func(c *fiber.Ctx) error {
		if deps.Sessions == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "sessions are not enabled")
		}
		return c.Next()
	})

	sessions.Post("/", func(c *fiber.Ctx) error {
		var req createSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if (req.Latitude == nil) != (req.Longitude == nil) {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude must be sent together")
		}

		lang := deps.DefaultLanguage
		if req.Language != "" {
			lang = local.ParseLanguage(req.Language)
		}

		// c.IP honors the configured proxy header.
		sess, err := deps.Sessions.Create(c.UserContext(), lang, req.device(time.Now().UTC()), c.IP())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create session")
		}
		return c.Status(fiber.StatusCreated).JSON(newSessionView(sess))
	})

	sessions.Get("/:id/messages", func(c *fiber.Ctx) error {
		id, err := sessionID(c)
		if err != nil {
			return err
		}
		sess, err := deps.Sessions.Get(c.UserContext(), id)
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(newSessionView(sess))
	})

	sessions.Post("/:id/turns", func(c *fiber.Ctx) error {
		id, err := sessionID(c)
		if err != nil {
			return err
		}
		var req turnRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, conversation.ErrEmptyMessage.Error())
		}

		reply, err := deps.Sessions.SubmitTurn(c.UserContext(), id, req.Message)
		if err != nil && reply.Content == "" {
			return sessionError(err)
		}

		resp := turnResponse{Message: reply}
		if err != nil {
			// The apology is already in the history; the detail is for diagnostics.
			resp.Error = err.Error()
		}
		return c.JSON(resp)
	})

	sessions.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := sessionID(c)
		if err != nil {
			return err
		}
		if err := deps.Sessions.Delete(c.UserContext(), id); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// createSessionRequest carries an optional device position. Latitude and
// longitude come together or not at all. Timestamp is when the position was
// fixed, in milliseconds since the epoch; it defaults to now.
type createSessionRequest struct {
	Language       string   `json:"language" validate:"omitempty,oneof=en jp ja"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Timestamp      int64    `json:"timestamp" validate:"gte=0"`
	LocationDenied bool     `json:"locationDenied"`
}

func (r createSessionRequest) device(now time.Time) *location.ReportedPosition {
	switch {
	case r.LocationDenied:
		return &location.ReportedPosition{Denied: true, ReportedAt: now}
	case r.Latitude != nil && r.Longitude != nil:
		fixedAt := now
		if r.Timestamp > 0 {
			fixedAt = time.UnixMilli(r.Timestamp).UTC()
		}
		return &location.ReportedPosition{
			Position:   &location.Position{Latitude: *r.Latitude, Longitude: *r.Longitude},
			ReportedAt: fixedAt,
			MaxAge:     location.DefaultMaxAge,
		}
	default:
		return nil
	}
}

type turnRequest struct {
	Message string `json:"message" validate:"required"`
}

type turnResponse struct {
	Message conversation.Message `json:"message"`
	Error   string               `json:"error,omitempty"`
}

type sessionView struct {
	ID        uuid.UUID              `json:"id"`
	Language  local.Language         `json:"language"`
	Location  *location.Snapshot     `json:"location,omitempty"`
	Messages  []conversation.Message `json:"messages"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func newSessionView(s *conversation.Session) sessionView {
	return sessionView{
		ID:        s.ID,
		Language:  s.Language,
		Location:  s.Location,
		Messages:  s.Messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrSessionBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, conversation.ErrEmptyMessage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
