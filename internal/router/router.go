package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/absence-tracker-api/internal/config"
	"github.com/noah-isme/absence-tracker-api/internal/handler"
	"github.com/noah-isme/absence-tracker-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AbsenceHandler *handler.AbsenceHandler
	EventHandler   *handler.EventHandler
	SubmitLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	var guards []fiber.Handler
	if deps.SubmitLimiter != nil {
		guards = append(guards, deps.SubmitLimiter)
	}

	if deps.AbsenceHandler != nil {
		deps.AbsenceHandler.Register(api.Group("/absences"), guards...)
	}

	if deps.EventHandler != nil {
		deps.EventHandler.Register(api.Group("/events"), guards...)
	}
}
