package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/date-planner/internal/config"
	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/location"
	locproviders "github.com/i474232898/date-planner/internal/location/providers"
	"github.com/i474232898/date-planner/internal/store"
	"github.com/i474232898/date-planner/internal/transcribe"
	"github.com/i474232898/date-planner/internal/weather"
	weatherproviders "github.com/i474232898/date-planner/internal/weather/providers"
)

// newResolver builds the location chain. IP lookups only use the address a
// caller passes in; the CLI opts into looking up its own with WithSelfLookup.
func newResolver(cfg *config.AppConfig, client *http.Client) *location.Resolver {
	geo := cfg.Geocoding
	geocoders := []location.ReverseGeocoder{
		locproviders.NewNominatimProvider(client, geo.NominatimURL, geo.UserAgent),
		locproviders.NewBigDataCloudProvider(client, geo.BigDataCloudURL),
	}
	if geo.GoogleAPIKey != "" {
		geocoders = append(geocoders, locproviders.NewGoogleProvider(geo.GoogleAPIKey))
	}
	ipLocators := []location.IPLocator{
		locproviders.NewIPAPICoProvider(client, geo.IPAPICoURL),
		locproviders.NewIPAPIComProvider(client, geo.IPAPIComURL),
	}
	return location.NewResolver(geocoders, ipLocators).WithDeviceTimeout(geo.DeviceTimeout)
}

// newWeather builds the forecast chain. A configured proxy is used
// exclusively in place of the direct WeatherAPI call; the optional sources
// follow as fallbacks.
func newWeather(cfg *config.AppConfig, client *http.Client) *weather.Service {
	w := cfg.Weather
	var provs []weather.Provider
	if w.ProxyURL != "" {
		provs = append(provs, weatherproviders.NewProxyProvider(client, w.ProxyURL))
	} else if w.WeatherAPIKey != "" {
		provs = append(provs, weatherproviders.NewWeatherAPIProvider(client, w.WeatherAPIKey, w.WeatherAPIBaseURL))
	}
	if w.OpenMeteo {
		provs = append(provs, weatherproviders.NewOpenMeteoProvider(client, w.OpenMeteoBaseURL))
	}
	if w.OpenWeatherAPIKey != "" {
		provs = append(provs, weatherproviders.NewOpenWeatherProvider(client, w.OpenWeatherAPIKey, w.OpenWeatherURL))
	}
	return weather.NewService(provs, w.FallbackCity)
}

func generationConfig(cfg *config.AppConfig) llm.GenerationConfig {
	return llm.GenerationConfig{
		Temperature:     cfg.Model.Temperature,
		TopK:            cfg.Model.TopK,
		TopP:            cfg.Model.TopP,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
	}
}

// newModelClient returns the direct model client, or nil when turns go
// through a model proxy.
func newModelClient(cfg *config.AppConfig, client *http.Client) llm.Client {
	m := cfg.Model
	switch m.Provider {
	case "gemini":
		return llm.NewGeminiClient(client, m.GeminiAPIKey, m.GeminiModel, m.GeminiBaseURL, generationConfig(cfg))
	case "openai":
		return llm.NewOpenAIClient(client, m.OpenAIAPIKey, m.OpenAIModel, m.OpenAIBaseURL, generationConfig(cfg))
	default:
		return nil
	}
}

func newGateway(cfg *config.AppConfig, client *http.Client) llm.Gateway {
	if cfg.Model.Provider == "proxy" {
		return llm.NewProxyGateway(client, cfg.Model.ProxyURL)
	}
	return llm.NewDirectGateway(newModelClient(cfg, client))
}

// newTranscriber returns the transcriber turns use. With a proxy configured
// the speech key stays on the proxy.
func newTranscriber(cfg *config.AppConfig, client *http.Client) transcribe.Transcriber {
	t := cfg.Transcription
	if t.ProxyURL != "" {
		return transcribe.NewProxy(client, t.ProxyURL)
	}
	return transcribe.NewGoogleSpeech(client, t.GoogleSpeechAPIKey, t.SpeechEndpoint)
}

func newStore(cfg *config.AppConfig) (conversation.Store, func() error, error) {
	s := cfg.Sessions
	switch s.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		st := store.NewRedisStore(rdb, s.IdleTTL)
		return st, st.Close, nil
	case "sqlite":
		st, err := store.NewSQLiteStore(s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "memory":
		return store.NewMemoryStore(s.MaxSessions, s.IdleTTL), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", s.Store)
	}
}

func newOrchestrator(cfg *config.AppConfig, client *http.Client, resolver *location.Resolver) *conversation.Orchestrator {
	return conversation.NewOrchestrator(
		resolver,
		newWeather(cfg, client),
		newGateway(cfg, client),
		conversation.NewHistoryBudget(cfg.Sessions.HistoryTokenBudget, cfg.Sessions.TokenEncoding),
	)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
