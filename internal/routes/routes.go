package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/slippymap/slippy-backend/internal/config"
	"github.com/slippymap/slippy-backend/internal/handlers"
	"github.com/slippymap/slippy-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	reportHandler *handlers.ReportHandler,
	commentHandler *handlers.CommentHandler,
	voteHandler *handlers.VoteHandler,
	geocodeHandler *handlers.GeocodeHandler,
	zipHandler *handlers.ZipHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Reports and their sub-resources
	api.Post("/reports", reportHandler.Create)
	api.Get("/reports", reportHandler.List)
	api.Get("/reports/:id", reportHandler.Get)
	api.Post("/reports/:id/comments", commentHandler.Create)
	api.Get("/reports/:id/comments", commentHandler.List)
	api.Post("/reports/:id/votes", voteHandler.Cast)

	// Geo lookups
	api.Get("/geocode/intersection", geocodeHandler.Intersection)
	api.Get("/zipcodes/:zip", zipHandler.Lookup)

	// Admin login — stricter rate limit: 10 req/min per IP
	api.Post("/admin/login", limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}), adminHandler.Login)

	// Admin panel (static token or admin JWT)
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Delete("/reports/:id", reportHandler.Delete)
	admin.Post("/backfill", adminHandler.Backfill)
	admin.Post("/moderation/run", adminHandler.ModerationRun)
}
