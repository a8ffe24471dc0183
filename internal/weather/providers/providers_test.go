package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/date-planner/internal/upstream"
	"github.com/i474232898/date-planner/internal/weather"
)

const forecastJSON = `{
  "location": {"name": "Tokyo", "region": "Tokyo", "country": "Japan", "localtime": "2026-10-18 14:00"},
  "current": {"temp_c": 18, "feelslike_c": 17.2, "condition": {"text": "Partly cloudy", "icon": "//cdn/116.png"}, "wind_kph": 12.2, "humidity": 60, "uv": 4},
  "forecast": {"forecastday": [
    {"date": "2026-10-18", "day": {"maxtemp_c": 21, "mintemp_c": 14, "avgtemp_c": 17.5, "condition": {"text": "Partly cloudy"}, "daily_chance_of_rain": 0, "daily_chance_of_snow": 0, "avghumidity": 58, "maxwind_kph": 15}},
    {"date": "2026-10-19", "day": {"maxtemp_c": 19, "mintemp_c": 13, "avgtemp_c": 16, "condition": {"text": "Light rain"}, "daily_chance_of_rain": 70, "daily_chance_of_snow": 0, "avghumidity": 80, "maxwind_kph": 20}}
  ]}
}`

func TestWeatherAPIForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "secret" || q.Get("q") != "35.68,139.69" || q.Get("days") != "2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("aqi") != "no" || q.Get("alerts") != "yes" {
			t.Errorf("missing aqi/alerts flags: %s", r.URL.RawQuery)
		}
		w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "secret", srv.URL)
	snap, err := p.Forecast(context.Background(), weather.Query{Q: "35.68,139.69"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Location.Name != "Tokyo" || snap.Current.FeelsLikeC != 17.2 || len(snap.Forecast) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Forecast[1].RainChance != 70 || snap.Forecast[1].MaxWindKph != 20 {
		t.Fatalf("unexpected forecast day: %+v", snap.Forecast[1])
	}
}

func TestWeatherAPIMissingKey(t *testing.T) {
	p := NewWeatherAPIProvider(http.DefaultClient, "", "")
	if _, err := p.Forecast(context.Background(), weather.Query{Q: "London"}, 1); !errors.Is(err, upstream.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestWeatherAPIUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	_, err := NewWeatherAPIProvider(srv.Client(), "secret", srv.URL).Payload(context.Background(), "nowhere", 1)
	var statusErr *upstream.StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "No matching location found." {
		t.Fatalf("expected upstream message, got %v", err)
	}
}

func TestProxyProviderPostsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body struct {
			Q    string `json:"q"`
			Days int    `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Q != "Tokyo" || body.Days != 3 {
			t.Errorf("unexpected body %+v", body)
		}
		w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	snap, err := NewProxyProvider(srv.Client(), srv.URL).Forecast(context.Background(), weather.Query{Q: "Tokyo"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Provider != "weather-proxy" || snap.Location.Region != "Tokyo" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestOpenMeteoRequiresCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, "")
	if _, err := p.Forecast(context.Background(), weather.Query{Q: "Tokyo"}, 1); err == nil {
		t.Fatal("expected error for a city query")
	}
}

func TestOpenMeteoForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("forecast_days") != "2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
		  "timezone": "Asia/Tokyo",
		  "current": {"time": "2026-10-18T14:00", "temperature_2m": 18, "apparent_temperature": 17, "relative_humidity_2m": 60, "wind_speed_10m": 12, "weather_code": 2},
		  "daily": {
		    "time": ["2026-10-18", "2026-10-19"],
		    "weather_code": [2, 73],
		    "temperature_2m_max": [21, 3],
		    "temperature_2m_min": [14, -1],
		    "precipitation_probability_max": [10, 80],
		    "relative_humidity_2m_mean": [58, null],
		    "wind_speed_10m_max": [15, 20]
		  }
		}`))
	}))
	defer srv.Close()

	lat, lon := 35.68, 139.69
	snap, err := NewOpenMeteoProvider(srv.Client(), srv.URL).Forecast(context.Background(), weather.Query{Q: "35.68,139.69", Latitude: &lat, Longitude: &lon}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.Condition != "Partly cloudy" || len(snap.Forecast) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	day := snap.Forecast[1]
	if day.Condition != "Snow" || day.SnowChance != 80 || day.RainChance != 0 || day.AvgTempC != 1 {
		t.Fatalf("unexpected day: %+v", day)
	}
	if snap.Forecast[0].RainChance != 10 || snap.Forecast[0].AvgHumidity != 58 {
		t.Fatalf("unexpected first day: %+v", snap.Forecast[0])
	}
}

func TestOpenWeatherForecast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Tokyo" || r.URL.Query().Get("units") != "metric" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"name":"Tokyo","sys":{"country":"JP"},"main":{"temp":18,"feels_like":17,"humidity":60},"weather":[{"main":"Clouds","description":"scattered clouds","icon":"03d"}],"wind":{"speed":5}}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		// 2026-10-18 15:00, 18:00 and 2026-10-19 00:00 UTC
		w.Write([]byte(`{"city":{"timezone":0},"list":[
		  {"dt":1792335600,"main":{"temp":20,"humidity":50},"weather":[{"main":"Clouds","description":"few clouds"}],"wind":{"speed":2},"pop":0.1},
		  {"dt":1792346400,"main":{"temp":16,"humidity":70},"weather":[{"main":"Clouds","description":"few clouds"}],"wind":{"speed":4},"pop":0.3},
		  {"dt":1792368000,"main":{"temp":12,"humidity":90},"weather":[{"main":"Rain","description":"light rain"}],"wind":{"speed":6},"pop":0.8}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snap, err := NewOpenWeatherProvider(srv.Client(), "secret", srv.URL).Forecast(context.Background(), weather.Query{Q: "Tokyo"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.Condition != "Scattered clouds" || snap.Current.WindKph != 18 {
		t.Fatalf("unexpected current: %+v", snap.Current)
	}
	if len(snap.Forecast) != 2 {
		t.Fatalf("expected 2 days, got %+v", snap.Forecast)
	}
	first := snap.Forecast[0]
	if first.MaxTempC != 20 || first.MinTempC != 16 || first.RainChance != 30 || first.Condition != "Few clouds" {
		t.Fatalf("unexpected first day: %+v", first)
	}
	if snap.Forecast[1].RainChance != 80 {
		t.Fatalf("unexpected second day: %+v", snap.Forecast[1])
	}
}
