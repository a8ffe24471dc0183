package location

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/date-planner/internal/upstream"
)

// ReportedPosition is a device position handed to us by a client, such as the
// browser Geolocation result sent with a new session or CLI flags.
type ReportedPosition struct {
	Position *Position `json:"position,omitempty"`
	// Denied is set when the client reported that the user refused access.
	Denied     bool          `json:"denied,omitempty"`
	ReportedAt time.Time     `json:"reportedAt"`
	MaxAge     time.Duration `json:"maxAge"`
}

// Locate implements DeviceLocator.
func (r ReportedPosition) Locate(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if r.Denied {
		return Position{}, upstream.ErrPermissionDenied
	}
	if r.Position == nil {
		return Position{}, ErrUnavailable
	}
	if r.MaxAge > 0 && !r.ReportedAt.IsZero() && time.Since(r.ReportedAt) > r.MaxAge {
		return Position{}, fmt.Errorf("%w: reported %s ago", ErrUnavailable, time.Since(r.ReportedAt).Round(time.Second))
	}
	if r.Position.Latitude < -90 || r.Position.Latitude > 90 || r.Position.Longitude < -180 || r.Position.Longitude > 180 {
		return Position{}, fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
	}
	return *r.Position, nil
}
