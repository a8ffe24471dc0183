package weather

import (
	"strings"
	"time"

	"github.com/i474232898/date-planner/internal/common"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Classify maps a provider's free-text condition onto a Condition.
func Classify(text string) Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return ConditionSnow
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(t, "mist", "fog", "haze"):
		return ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

// Place is the location block of a forecast.
type Place struct {
	Name      string `json:"name"`
	Region    string `json:"region,omitempty"`
	Country   string `json:"country,omitempty"`
	Localtime string `json:"localtime,omitempty"`
}

// Label is the card label: "name, region" when a region is known,
// otherwise "name, country".
func (p Place) Label() string {
	if p.Region != "" {
		return common.JoinNonEmpty(", ", p.Name, p.Region)
	}
	return common.JoinNonEmpty(", ", p.Name, p.Country)
}

// Current holds present conditions.
type Current struct {
	TempC      float64 `json:"tempC"`
	FeelsLikeC float64 `json:"feelsLikeC"`
	Condition  string  `json:"condition"`
	Icon       string  `json:"icon,omitempty"`
	WindKph    float64 `json:"windKph"`
	Humidity   float64 `json:"humidity"`
	UV         float64 `json:"uv,omitempty"`
}

// ForecastDay is one day of a forecast. Chances are percentages.
type ForecastDay struct {
	Date        string  `json:"date"`
	MaxTempC    float64 `json:"maxTempC"`
	MinTempC    float64 `json:"minTempC"`
	AvgTempC    float64 `json:"avgTempC"`
	Condition   string  `json:"condition"`
	Icon        string  `json:"icon,omitempty"`
	RainChance  float64 `json:"rainChance"`
	SnowChance  float64 `json:"snowChance"`
	AvgHumidity float64 `json:"avgHumidity"`
	MaxWindKph  float64 `json:"maxWindKph"`
}

// Snapshot is the normalized forecast for one query. It is never cached.
type Snapshot struct {
	Location  Place         `json:"location"`
	Current   Current       `json:"current"`
	Forecast  []ForecastDay `json:"forecast"`
	Provider  string        `json:"provider"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// Card is the per-day view rendered next to a reply.
type Card struct {
	Location      string    `json:"location"`
	DayIndex      int       `json:"dayIndex"`
	Date          string    `json:"date,omitempty"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feelsLike"`
	Condition     string    `json:"condition"`
	Category      Condition `json:"category"`
	Icon          string    `json:"icon,omitempty"`
	Humidity      float64   `json:"humidity"`
	WindKph       float64   `json:"windKph"`
	Precipitation float64   `json:"precipitation"`
}
