package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/slippymap/slippy-backend/internal/config"
	"github.com/slippymap/slippy-backend/internal/database"
	"github.com/slippymap/slippy-backend/internal/geocode"
	"github.com/slippymap/slippy-backend/internal/handlers"
	"github.com/slippymap/slippy-backend/internal/logging"
	"github.com/slippymap/slippy-backend/internal/middleware"
	"github.com/slippymap/slippy-backend/internal/moderation"
	"github.com/slippymap/slippy-backend/internal/routes"
	"github.com/slippymap/slippy-backend/internal/scheduler"
	"github.com/slippymap/slippy-backend/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))
	logger := slog.Default()

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Geocoding and moderation. One limiter paces every Nominatim call:
	// inline resolution, the on-demand endpoint, and the backfill sweep.
	geoClient := geocode.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout)
	geoLimiter := rate.NewLimiter(rate.Every(cfg.GeocodeMinInterval), 1)
	resolver := geocode.NewResolver(geoClient, geoLimiter, logger)
	modClient := moderation.NewClient(cfg.OpenAIModerateURL, cfg.OpenAIAPIKey, cfg.ModerationTimeout)
	gate := moderation.NewGate(modClient, moderation.NewWordlist(), logger)

	// Services
	reportService := services.NewReportService(database.DB, resolver, gate, logger)
	commentService := services.NewCommentService(database.DB)
	voteService := services.NewVoteService(database.DB)
	zipService := services.NewZipService(database.DB)
	authService := services.NewAuthService(cfg)

	// Background schedulers
	clock := clockwork.NewRealClock()
	backfill := scheduler.NewBackfill(
		database.DB, resolver, logger,
		cfg.BackfillBatchSize, cfg.BackfillRowRetries,
	)
	moderationSweep := scheduler.NewModeration(
		database.DB, gate, clock, logger,
		cfg.ModerationBatchSize, cfg.ModerationItemDelay, cfg.ModerationMaxAttempts,
	)

	schedulerCtx, stopSchedulers := context.WithCancel(context.Background())
	scheduler.NewRunner("address_backfill", cfg.BackfillInterval, clock, logger, backfill.Run).Start(schedulerCtx)
	scheduler.NewRunner("comment_moderation", cfg.ModerationInterval, clock, logger, moderationSweep.Run).Start(schedulerCtx)

	// Handlers
	reportHandler := handlers.NewReportHandler(reportService)
	commentHandler := handlers.NewCommentHandler(commentService)
	voteHandler := handlers.NewVoteHandler(voteService)
	geocodeHandler := handlers.NewGeocodeHandler(resolver)
	zipHandler := handlers.NewZipHandler(zipService)
	healthHandler := handlers.NewHealthHandler()
	adminHandler := handlers.NewAdminHandler(authService, backfill, moderationSweep)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, reportHandler, commentHandler, voteHandler, geocodeHandler, zipHandler, healthHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	stopSchedulers()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
