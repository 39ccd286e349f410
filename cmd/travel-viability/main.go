package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/travel-viability/internal/api/http"
	"github.com/i474232898/travel-viability/internal/app"
	"github.com/i474232898/travel-viability/internal/config"
	"github.com/i474232898/travel-viability/internal/logging"
	"github.com/i474232898/travel-viability/internal/scheduler"
	"github.com/i474232898/travel-viability/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	components := app.Build(cfg, log)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically runs the batch and keeps recent results.
	sched := scheduler.New(components.Service, memStore, cfg.RunInterval, cfg.RunSchedule, 0, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	fapp := fiber.New(fiber.Config{
		AppName:               "travel-viability",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	fapp.Use(logger.New())
	fapp.Use(recover.New())

	// Basic health endpoint
	fapp.Get("/health", func(c *fiber.Ctx) error {
		last, runs := sched.Last()
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "travel-viability",
			"runs":      runs,
			"lastRunId": last.RunID,
			"cities":    len(components.Service.Cities()),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(fapp, httpapi.Deps{
		Records:  memStore,
		Reports:  components.History,
		Analysis: components.Predictor,
		Metrics:  components.Metrics.Handler(),
	})

	go func() {
		if err := fapp.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("travel-viability listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fapp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
		os.Exit(1)
	}
}
