package weather

import (
	"context"
	"fmt"

	"github.com/i474232898/date-planner/internal/common"
	"github.com/i474232898/date-planner/internal/location"
)

const (
	// DefaultFallbackCity is queried when nothing better is known.
	DefaultFallbackCity = "London"
	MinDays             = 1
	MaxDays             = 10
)

// Query selects what a provider should forecast. Q is the free-form form
// ("lat,lon" or a city); Latitude/Longitude are set only for coordinate queries.
type Query struct {
	Q         string
	Latitude  *float64
	Longitude *float64
}

// HasCoordinates reports whether the query is a coordinate pair.
func (q Query) HasCoordinates() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// Provider abstracts a forecast source (WeatherAPI, the weather proxy, Open-Meteo, OpenWeatherMap).
type Provider interface {
	Name() string
	Forecast(ctx context.Context, q Query, days int) (Snapshot, error)
}

// BuildQuery prefers coordinates, then the city name, then the fallback city.
// The sources are never combined.
func BuildQuery(loc location.Snapshot, fallbackCity string) Query {
	if loc.HasCoordinates() {
		lat, lon := *loc.Latitude, *loc.Longitude
		return Query{
			Q:         fmt.Sprintf("%s,%s", common.FormatNumber(lat), common.FormatNumber(lon)),
			Latitude:  &lat,
			Longitude: &lon,
		}
	}
	if loc.City != "" {
		return Query{Q: loc.City}
	}
	if fallbackCity == "" {
		fallbackCity = DefaultFallbackCity
	}
	return Query{Q: fallbackCity}
}

// ClampDays keeps a day count inside the range providers accept.
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
