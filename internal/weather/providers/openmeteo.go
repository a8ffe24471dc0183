package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
)

// OpenMeteoProvider is a keyless forecast source. It only accepts coordinate queries.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Forecast(ctx context.Context, q weather.Query, days int) (weather.Snapshot, error) {
	if !q.HasCoordinates() {
		return weather.Snapshot{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}
	days = weather.ClampDays(days)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", *q.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", *q.Longitude))
		values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")
		values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max,relative_humidity_2m_mean,wind_speed_10m_max")
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(days))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload struct {
		Timezone string `json:"timezone"`
		Current  struct {
			Time                string  `json:"time"`
			Temperature         float64 `json:"temperature_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			Humidity            float64 `json:"relative_humidity_2m"`
			WindSpeed           float64 `json:"wind_speed_10m"`
			WeatherCode         int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			Time        []string   `json:"time"`
			WeatherCode []int      `json:"weather_code"`
			TempMax     []float64  `json:"temperature_2m_max"`
			TempMin     []float64  `json:"temperature_2m_min"`
			PrecipProb  []*float64 `json:"precipitation_probability_max"`
			Humidity    []*float64 `json:"relative_humidity_2m_mean"`
			WindMax     []float64  `json:"wind_speed_10m_max"`
		} `json:"daily"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return weather.Snapshot{}, err
	}

	snap := weather.Snapshot{
		Location: weather.Place{Name: q.Q, Localtime: payload.Current.Time},
		Current: weather.Current{
			TempC:      payload.Current.Temperature,
			FeelsLikeC: payload.Current.ApparentTemperature,
			Condition:  describeWMOCode(payload.Current.WeatherCode),
			WindKph:    payload.Current.WindSpeed,
			Humidity:   payload.Current.Humidity,
		},
		Provider: p.name,
	}

	d := payload.Daily
	for i, date := range d.Time {
		if i >= len(d.WeatherCode) || i >= len(d.TempMax) || i >= len(d.TempMin) {
			break
		}
		day := weather.ForecastDay{
			Date:      date,
			MaxTempC:  d.TempMax[i],
			MinTempC:  d.TempMin[i],
			AvgTempC:  round1((d.TempMax[i] + d.TempMin[i]) / 2),
			Condition: describeWMOCode(d.WeatherCode[i]),
		}
		if i < len(d.PrecipProb) && d.PrecipProb[i] != nil {
			if weather.Classify(day.Condition) == weather.ConditionSnow {
				day.SnowChance = *d.PrecipProb[i]
			} else {
				day.RainChance = *d.PrecipProb[i]
			}
		}
		if i < len(d.Humidity) && d.Humidity[i] != nil {
			day.AvgHumidity = *d.Humidity[i]
		}
		if i < len(d.WindMax) {
			day.MaxWindKph = d.WindMax[i]
		}
		snap.Forecast = append(snap.Forecast, day)
	}

	return snap, nil
}

// describeWMOCode turns a WMO weather interpretation code into text.
func describeWMOCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code >= 1 && code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
