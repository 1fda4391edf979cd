package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/hostel-service/internal/api/http/handlers"
	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/observability"
	"github.com/spec-kit/hostel-service/internal/service"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Requests  *service.RequestService
	OTP       *service.OTPService
	Dashboard *service.DashboardService
	Guard     *auth.Guard
}

// ServerConfig describes the process serving the API.
type ServerConfig struct {
	Name           string
	Version        string
	StoreDriver    string
	RequestTimeout time.Duration
	Dependencies   map[string]handlers.Pinger
}

// NewServer builds the fiber application with middlewares and routes.
func NewServer(cfg ServerConfig, svc Services, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.Name, cfg.Version, cfg.StoreDriver, cfg.Dependencies),
		Auth:           handlers.NewAuthHandler(svc.Auth),
		Users:          handlers.NewUsersHandler(svc.Users, svc.Auth, svc.Dashboard),
		Requests:       handlers.NewRequestsHandler(svc.Requests, svc.OTP),
		Admin:          handlers.NewAdminHandler(svc.Users, svc.Dashboard),
		AuthMiddleware: auth.NewMiddleware(svc.Guard),
		Metrics:        metrics,
	})
	return app
}
