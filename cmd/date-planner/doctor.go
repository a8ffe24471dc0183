package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/store"
	"github.com/i474232898/date-planner/internal/upstream"
	weatherproviders "github.com/i474232898/date-planner/internal/weather/providers"
)

type checkStatus int

const (
	statusPass checkStatus = iota
	statusWarn
	statusFail
)

type checkResult struct {
	name   string
	status checkStatus
	detail string
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks against the configured providers",
		Long: `Verifies that the model, weather, geocoding and session store settings
work. Network checks run concurrently; each reports pass, warn or fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("date-planner doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			checks := []func(context.Context) checkResult{
				checkModel,
				checkWeather,
				checkIPLocation,
				checkStore,
				checkServerPort,
			}
			results := make([]checkResult, len(checks))

			wg := conc.NewWaitGroup()
			for i, check := range checks {
				i, check := i, check
				wg.Go(func() {
					results[i] = check(ctx)
				})
			}
			wg.Wait()

			passed, warned, failed := 0, 0, 0
			for _, r := range results {
				switch r.status {
				case statusPass:
					printPass(r.name, r.detail)
					passed++
				case statusWarn:
					printWarn(r.name, r.detail)
					warned++
				default:
					printFail(r.name, r.detail)
					failed++
				}
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

// checkModel only inspects configuration; a test call would spend quota.
func checkModel(ctx context.Context) checkResult {
	r := checkResult{name: "Model: " + cfg.Model.Provider}
	switch cfg.Model.Provider {
	case "gemini":
		r.status, r.detail = keyStatus(cfg.Model.GeminiAPIKey, "GEMINI_API_KEY", cfg.Model.GeminiModel)
	case "openai":
		r.status, r.detail = keyStatus(cfg.Model.OpenAIAPIKey, "OPENAI_API_KEY", cfg.Model.OpenAIModel)
	case "proxy":
		r.status, r.detail = statusPass, cfg.Model.ProxyURL
	}
	return r
}

func keyStatus(key, envName, model string) (checkStatus, string) {
	if key == "" {
		return statusFail, envName + " not set"
	}
	return statusPass, "key set, model " + model
}

func checkWeather(ctx context.Context) checkResult {
	r := checkResult{name: "Weather"}
	if cfg.Weather.ProxyURL != "" {
		r.status, r.detail = statusPass, "proxy "+cfg.Weather.ProxyURL
		return r
	}

	client := newHTTPClient(10 * time.Second)
	p := weatherproviders.NewWeatherAPIProvider(client, cfg.Weather.WeatherAPIKey, cfg.Weather.WeatherAPIBaseURL)
	_, err := p.Payload(ctx, cfg.Weather.FallbackCity, 1)
	switch {
	case err == nil:
		r.status, r.detail = statusPass, "forecast for "+cfg.Weather.FallbackCity
	case errors.Is(err, upstream.ErrConfigMissing):
		// Turns still work, just without weather context.
		r.status, r.detail = statusWarn, "WEATHERAPI_API_KEY not set"
	default:
		r.status, r.detail = statusFail, err.Error()
	}
	return r
}

func checkIPLocation(ctx context.Context) checkResult {
	r := checkResult{name: "Location"}
	resolver := newResolver(cfg, newHTTPClient(10*time.Second)).WithSelfLookup()
	snap := resolver.Resolve(ctx)
	if snap.Source == location.SourceUnknown {
		r.status, r.detail = statusWarn, "no strategy produced a location"
		return r
	}
	r.status, r.detail = statusPass, fmt.Sprintf("%s via %s", snap.Label(), snap.Source)
	return r
}

func checkStore(ctx context.Context) checkResult {
	s := cfg.Sessions
	r := checkResult{name: "Sessions: " + s.Store}
	switch s.Store {
	case "redis":
		st := store.NewRedisStore(redis.NewClient(&redis.Options{Addr: s.RedisAddr, Password: s.RedisPassword, DB: s.RedisDB}), s.IdleTTL)
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			r.status, r.detail = statusFail, err.Error()
			return r
		}
		r.status, r.detail = statusPass, s.RedisAddr
	case "sqlite":
		st, err := store.NewSQLiteStore(s.SQLitePath)
		if err != nil {
			r.status, r.detail = statusFail, err.Error()
			return r
		}
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			r.status, r.detail = statusFail, err.Error()
			return r
		}
		r.status, r.detail = statusPass, s.SQLitePath
	default:
		r.status, r.detail = statusPass, "in-memory (lost on restart)"
	}
	return r
}

func checkServerPort(ctx context.Context) checkResult {
	r := checkResult{name: "API port"}
	ln, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		r.status, r.detail = statusWarn, fmt.Sprintf("port %s may be in use: %v", cfg.Server.Port, err)
		return r
	}
	ln.Close()
	r.status, r.detail = statusPass, ":"+cfg.Server.Port+" available"
	return r
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
