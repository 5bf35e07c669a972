package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/push"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Tickets       *handlers.TicketsHandler
	Workflows     *handlers.WorkflowsHandler
	Notifications *handlers.NotificationsHandler
	Hub           *push.Hub
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/tickets/:id/transitions", cfg.Tickets.ExecuteTransition)
	app.Get("/tickets/:id/history", cfg.Tickets.ListHistory)

	app.Get("/workflows/:id", cfg.Workflows.GetDefinition)

	app.Get("/notifications", cfg.Notifications.List)
	app.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	if cfg.Hub != nil {
		app.Use("/ws/alerts", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/alerts", websocket.New(cfg.Hub.Handler()))
	}
}
