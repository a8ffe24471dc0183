package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/date-planner/internal/api/http"
	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/llm"
	"github.com/i474232898/date-planner/internal/scheduler"
	"github.com/i474232898/date-planner/internal/transcribe"
	weatherproviders "github.com/i474232898/date-planner/internal/weather/providers"
	"github.com/i474232898/date-planner/pkg/local"
	"github.com/i474232898/date-planner/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and credential-holding proxy",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Shared HTTP client for outbound provider calls.
	httpClient := newHTTPClient(cfg.Model.Timeout)

	sessionStore, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := conversation.NewService(sessionStore, newOrchestrator(cfg, httpClient, newResolver(cfg, httpClient)))

	// The proxy routes always hold their own credentials and never forward
	// to another proxy.
	deps := httpapi.Dependencies{
		Sessions:        sessions,
		Weather:         weatherproviders.NewWeatherAPIProvider(httpClient, cfg.Weather.WeatherAPIKey, cfg.Weather.WeatherAPIBaseURL),
		Transcriber:     transcribe.NewGoogleSpeech(httpClient, cfg.Transcription.GoogleSpeechAPIKey, cfg.Transcription.SpeechEndpoint),
		DefaultLanguage: local.ParseLanguage(cfg.DefaultLanguage),
	}
	if client := newModelClient(cfg, httpClient); client != nil {
		deps.Model = llm.NewDirectGateway(client)
	}

	// Scheduler that periodically drops idle sessions.
	sched := scheduler.New(sessions, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTTL)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "date-planner",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ProxyHeader:           cfg.Server.ProxyHeader,
		EnableIPValidation:    true,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "date-planner",
			"version":  version,
			"model":    cfg.Model.Provider,
			"sessions": cfg.Sessions.Store,
		})
	})

	httpapi.RegisterRoutes(app, deps)

	go func() {
		logger.Infof("date-planner %s listening on :%s", version, cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}
	return nil
}
