package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/p2p-exchange-bot/internal/api/http/handlers"
	"github.com/spec-kit/p2p-exchange-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Webhook       *handlers.WebhookHandler
	WebhookSecret string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/telegram/webhook", auth.WebhookSecret(cfg.WebhookSecret), cfg.Webhook.Handle)
}
