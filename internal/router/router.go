package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skor-go-api/internal/config"
	"github.com/noah-isme/skor-go-api/internal/handler"
	"github.com/noah-isme/skor-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	WeightConfigHandler *handler.WeightConfigHandler
	GradebookHandler    *handler.GradebookHandler
	TopicMarkHandler    *handler.TopicMarkHandler
	SubmissionHandler   *handler.SubmissionHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	protected := api.Group("", jwtMiddleware)

	if deps.WeightConfigHandler != nil {
		deps.WeightConfigHandler.Register(protected)
	}

	if deps.GradebookHandler != nil {
		deps.GradebookHandler.Register(protected)
	}

	if deps.TopicMarkHandler != nil {
		deps.TopicMarkHandler.Register(protected)
	}

	if deps.SubmissionHandler != nil {
		submissions := protected.Group("/submissions")
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ActivityHandler != nil {
		activity := protected.Group("/activity")
		deps.ActivityHandler.Register(activity)
	}
}
