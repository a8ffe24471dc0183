package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
)

// openWeatherMaxDays is the horizon of the free 5 day / 3 hour forecast.
const openWeatherMaxDays = 5

// OpenWeatherProvider builds forecasts from OpenWeatherMap's current weather
// and 3-hourly forecast endpoints.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, q weather.Query, days int) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweather: %w", upstream.ErrConfigMissing)
	}

	var current struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main    owmMain        `json:"main"`
		Weather []owmCondition `json:"weather"`
		Wind    struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := p.get(ctx, "/weather", q, &current); err != nil {
		return weather.Snapshot{}, err
	}

	var forecast struct {
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
		List []struct {
			Dt      int64          `json:"dt"`
			Main    owmMain        `json:"main"`
			Weather []owmCondition `json:"weather"`
			Wind    struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Pop float64 `json:"pop"`
		} `json:"list"`
	}
	if err := p.get(ctx, "/forecast", q, &forecast); err != nil {
		return weather.Snapshot{}, err
	}

	cond := firstCondition(current.Weather)
	snap := weather.Snapshot{
		Location: weather.Place{Name: current.Name, Country: current.Sys.Country},
		Current: weather.Current{
			TempC:      current.Main.Temp,
			FeelsLikeC: current.Main.FeelsLike,
			Condition:  cond.text(),
			Icon:       cond.Icon,
			WindKph:    msToKph(current.Wind.Speed),
			Humidity:   current.Main.Humidity,
		},
		Provider: p.name,
	}

	samples := make([]weather.Sample, 0, len(forecast.List))
	for _, item := range forecast.List {
		c := firstCondition(item.Weather)
		s := weather.Sample{
			Time:      time.Unix(item.Dt, 0),
			TempC:     item.Main.Temp,
			Humidity:  item.Main.Humidity,
			WindKph:   msToKph(item.Wind.Speed),
			Condition: c.text(),
			Icon:      c.Icon,
		}
		if c.Main == "Snow" {
			s.SnowChance = math.Round(item.Pop * 100)
		} else {
			s.RainChance = math.Round(item.Pop * 100)
		}
		samples = append(samples, s)
	}

	zone := time.FixedZone("owm", forecast.City.Timezone)
	forecastDays := weather.AggregateByDay(samples, zone)
	limit := weather.ClampDays(days)
	if limit > openWeatherMaxDays {
		limit = openWeatherMaxDays
	}
	if len(forecastDays) > limit {
		forecastDays = forecastDays[:limit]
	}
	snap.Forecast = forecastDays

	return snap, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, q weather.Query, out interface{}) error {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		if q.HasCoordinates() {
			values.Set("lat", fmt.Sprintf("%f", *q.Latitude))
			values.Set("lon", fmt.Sprintf("%f", *q.Longitude))
		} else {
			values.Set("q", q.Q)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode()), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	return upstream.DecodeJSON(resp, out)
}

func firstCondition(items []owmCondition) owmCondition {
	if len(items) == 0 {
		return owmCondition{}
	}
	return items[0]
}

func (c owmCondition) text() string {
	if c.Description == "" {
		return c.Main
	}
	return strings.ToUpper(c.Description[:1]) + c.Description[1:]
}

func msToKph(v float64) float64 {
	return round1(v * 3.6)
}
