package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Tickets  *handlers.TicketsHandler
	Audit    *handlers.AuditHandler
	Resolver *auth.Resolver

	RegisterPerMinute int
	LoginPerMinute    int
	LimiterStorage    fiber.Storage
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	requireUser := cfg.Resolver.Middleware()

	authGroup := app.Group("/auth")
	authGroup.Post("/register", limited(cfg.RegisterPerMinute, cfg.LimiterStorage), cfg.Auth.Register)
	authGroup.Post("/token", limited(cfg.LoginPerMinute, cfg.LimiterStorage), cfg.Auth.Token)
	authGroup.Get("/me", requireUser, cfg.Auth.Me)
	authGroup.Post("/logout", requireUser, cfg.Auth.Logout)

	tickets := app.Group("/tickets", requireUser)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	app.Get("/audit", requireUser, cfg.Audit.List)
}

func limited(perMinute int, storage fiber.Storage) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return rateLimit(perMinute, storage)
}
