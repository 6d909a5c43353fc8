package router

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"eventplanner/internal/auth"
	"eventplanner/internal/cache"
	"eventplanner/internal/config"
	"eventplanner/internal/email"
	"eventplanner/internal/handler"
	"eventplanner/internal/middleware"
	"eventplanner/internal/repository"
	"eventplanner/internal/service"
)

// Deps are the external resources the HTTP server is built on.
type Deps struct {
	DB       *gorm.DB
	Cache    *cache.Client
	Notifier email.Notifier
	Logger   zerolog.Logger
}

// New builds the full application: repositories, services, handlers and routes.
func New(cfg *config.Config, deps Deps) *echo.Echo {
	// Initialize repositories
	userRepo := repository.NewUserRepository(deps.DB, cfg.Database.Timeout)
	eventRepo := repository.NewEventRepository(deps.DB, cfg.Database.Timeout)

	// Initialize auth components
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	tokenStore := auth.NewTokenStore(deps.Cache)

	// Initialize services
	userService := service.NewUserService(userRepo, deps.Cache)
	authService := service.NewAuthService(userRepo, tokens, tokenStore)
	eventService := service.NewEventService(eventRepo, userRepo, deps.Notifier, cfg.Email.AppBaseURL)

	checks := []HealthCheck{
		{Name: "database", Required: true, Check: func(ctx context.Context) error {
			sqlDB, err := deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		{Name: "cache", Check: deps.Cache.Ping},
	}

	e := echo.New()
	Register(e, cfg, deps.Logger,
		middleware.Authenticate(tokens, tokenStore, userService),
		checks,
		Handlers{
			Auth:   handler.NewAuthHandler(authService),
			Users:  handler.NewUserHandler(userService),
			Events: handler.NewEventHandler(eventService),
		},
	)
	return e
}
