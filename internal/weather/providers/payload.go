package providers

import (
	"time"

	"github.com/i474232898/date-planner/internal/weather"
)

// forecastPayload is the WeatherAPI forecast.json body. The weather proxy
// forwards it unchanged, so both transports decode the same shape.
type forecastPayload struct {
	Location struct {
		Name      string `json:"name"`
		Region    string `json:"region"`
		Country   string `json:"country"`
		Localtime string `json:"localtime"`
	} `json:"location"`
	Current struct {
		TempC      float64   `json:"temp_c"`
		FeelsLikeC float64   `json:"feelslike_c"`
		Condition  condition `json:"condition"`
		WindKph    float64   `json:"wind_kph"`
		Humidity   float64   `json:"humidity"`
		UV         float64   `json:"uv"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC          float64   `json:"maxtemp_c"`
				MinTempC          float64   `json:"mintemp_c"`
				AvgTempC          float64   `json:"avgtemp_c"`
				Condition         condition `json:"condition"`
				DailyChanceOfRain float64   `json:"daily_chance_of_rain"`
				DailyChanceOfSnow float64   `json:"daily_chance_of_snow"`
				AvgHumidity       float64   `json:"avghumidity"`
				MaxWindKph        float64   `json:"maxwind_kph"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

type condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

func (p forecastPayload) toSnapshot(provider string) weather.Snapshot {
	snap := weather.Snapshot{
		Location: weather.Place{
			Name:      p.Location.Name,
			Region:    p.Location.Region,
			Country:   p.Location.Country,
			Localtime: p.Location.Localtime,
		},
		Current: weather.Current{
			TempC:      p.Current.TempC,
			FeelsLikeC: p.Current.FeelsLikeC,
			Condition:  p.Current.Condition.Text,
			Icon:       p.Current.Condition.Icon,
			WindKph:    p.Current.WindKph,
			Humidity:   p.Current.Humidity,
			UV:         p.Current.UV,
		},
		Provider:  provider,
		FetchedAt: time.Now().UTC(),
	}

	for _, fd := range p.Forecast.ForecastDay {
		snap.Forecast = append(snap.Forecast, weather.ForecastDay{
			Date:        fd.Date,
			MaxTempC:    fd.Day.MaxTempC,
			MinTempC:    fd.Day.MinTempC,
			AvgTempC:    fd.Day.AvgTempC,
			Condition:   fd.Day.Condition.Text,
			Icon:        fd.Day.Condition.Icon,
			RainChance:  fd.Day.DailyChanceOfRain,
			SnowChance:  fd.Day.DailyChanceOfSnow,
			AvgHumidity: fd.Day.AvgHumidity,
			MaxWindKph:  fd.Day.MaxWindKph,
		})
	}

	return snap
}
