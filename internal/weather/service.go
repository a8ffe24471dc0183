package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/pkg/logger"
)

// ErrWeatherUnavailable is returned when no provider could produce a forecast.
// Callers treat it as non-fatal.
var ErrWeatherUnavailable = errors.New("weather unavailable")

// Service tries its providers in order and returns the first forecast.
type Service struct {
	providers    []Provider
	fallbackCity string
}

// NewService creates a new Service.
func NewService(providers []Provider, fallbackCity string) *Service {
	return &Service{
		providers:    providers,
		fallbackCity: fallbackCity,
	}
}

// Fetch forecasts requestedDays (clamped to 1..10) for loc.
func (s *Service) Fetch(ctx context.Context, loc location.Snapshot, requestedDays int) (Snapshot, error) {
	return s.FetchQuery(ctx, BuildQuery(loc, s.fallbackCity), requestedDays)
}

// FetchQuery forecasts an explicit query.
func (s *Service) FetchQuery(ctx context.Context, q Query, requestedDays int) (Snapshot, error) {
	days := ClampDays(requestedDays)

	if len(s.providers) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrWeatherUnavailable, upstream.ErrConfigMissing)
	}

	logger.Debugf("weather: fetching %q for %d days", q.Q, days)

	var lastErr error
	for _, p := range s.providers {
		snap, err := p.Forecast(ctx, q, days)
		if err != nil {
			logger.Warnf("weather: provider %s failed for %q: %v", p.Name(), q.Q, err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if snap.Provider == "" {
			snap.Provider = p.Name()
		}
		if snap.FetchedAt.IsZero() {
			snap.FetchedAt = time.Now().UTC()
		}
		return snap, nil
	}

	return Snapshot{}, fmt.Errorf("%w: %w", ErrWeatherUnavailable, lastErr)
}
