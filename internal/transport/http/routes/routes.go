package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/infra/config"
	"github.com/klabs/account-service/internal/infra/telemetry"
	"github.com/klabs/account-service/internal/transport/http/handlers"
	"github.com/klabs/account-service/internal/transport/http/middleware"
	"github.com/klabs/account-service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration *usecase.RegistrationService
	Auth         *usecase.AuthService
	Validation   *usecase.ValidationService
	Accounts     *usecase.AccountService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))

	checks := make([]handlers.ReadinessCheck, 0, 2)
	if deps.Database != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "postgres", Probe: deps.Database.Ping})
	}
	if deps.Cache != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Probe: deps.Cache.Ping})
	}

	healthHandler := handlers.NewHealthHandler(checks...)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		accountGroup := api.Group("/account")

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		registrationHandler.RegisterRoutes(accountGroup)

		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(authGroup)

		validationHandler := handlers.NewValidationHandler(deps.Services.Validation)
		validationHandler.RegisterRoutes(authGroup)

		authMiddleware := middleware.RequireAuth(deps.Services.Validation)

		managedGroup := accountGroup.Group("")
		managedGroup.Use(authMiddleware)

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)
		accountHandler.RegisterRoutes(managedGroup)
	}

	return r
}
