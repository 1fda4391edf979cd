package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/hostel-service/internal/api/http/handlers"
	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	users := api.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateMe)
	users.Get("/me/stats", cfg.Users.Stats)
	users.Put("/me/password", cfg.Users.ChangePassword)
	users.Get("/block/:block", cfg.Users.BlockResidents)

	// Static segments are registered before /:id.
	requests := api.Group("/requests")
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", auth.RequireElevated(), cfg.Requests.List)
	requests.Get("/mine", cfg.Requests.Mine)
	requests.Post("/bulk-assign", auth.RequireElevated(), cfg.Requests.BulkAssign)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id", auth.RequireElevated(), cfg.Requests.Update)
	requests.Post("/:id/cancel", cfg.Requests.Cancel)
	requests.Post("/:id/feedback", cfg.Requests.Feedback)
	requests.Post("/:id/otp", auth.RequireElevated(), cfg.Requests.GenerateOTP)
	requests.Post("/:id/otp/verify", cfg.Requests.VerifyOTP)
	requests.Get("/:id/history", auth.RequireElevated(), cfg.Requests.History)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeactivateUser)
}
