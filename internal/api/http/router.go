package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/api/http/handlers"
	"github.com/spec-kit/order-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
	// OrderDetailsRequireAuth guards GET /order-details/:id.
	OrderDetailsRequireAuth bool
	Logger                  *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/user", cfg.Users.Upsert)

	// Guarded per route: a group on "" would also catch later public routes.
	requireAuth := cfg.AuthMiddleware.Handle
	app.Get("/user/role", requireAuth, cfg.Users.Role)
	app.Post("/orders", requireAuth, cfg.Orders.Create)
	app.Get("/orders", requireAuth, cfg.Orders.List)
	app.Patch("/update-order", requireAuth, cfg.Orders.Update)
	app.Post("/delete-request", requireAuth, cfg.Orders.Delete)

	if cfg.OrderDetailsRequireAuth {
		app.Get("/order-details/:id", requireAuth, cfg.Orders.Details)
		return
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("GET /order-details/:id is public; set ORDER_DETAILS_REQUIRE_AUTH=true to guard it")
	}
	app.Get("/order-details/:id", cfg.Orders.Details)
}
