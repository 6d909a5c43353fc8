package router

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"eventplanner/internal/config"
	"eventplanner/internal/handler"
	"eventplanner/internal/metrics"
	"eventplanner/internal/middleware"
	"eventplanner/internal/model"
)

const healthTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Events *handler.EventHandler
}

// Register wires routes and middleware. guard authenticates bearer tokens.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger zerolog.Logger,
	guard []echo.MiddlewareFunc,
	checks []HealthCheck,
	h Handlers,
) {
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(e)

	e.Use(middleware.RequestID())
	e.Use(middleware.ContextLogger(logger))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	}))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/healthz", healthHandler(checks))
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/events", h.Events.List)
	api.GET("/events/:id", h.Events.Get)

	// Secured routes
	api.POST("/auth/logout", h.Auth.Logout, guard...)
	api.GET("/users/me", h.Users.Me, guard...)

	organizer := append(append([]echo.MiddlewareFunc{}, guard...), middleware.RequireCapability(model.CapabilityCreateEvent))
	api.POST("/events", h.Events.Create, organizer...)

	api.GET("/events/my/organized", h.Events.MyOrganized, guard...)
	api.GET("/events/my/invited", h.Events.MyInvited, guard...)
	api.GET("/events/search", h.Events.Search, guard...)
	api.DELETE("/events/:id", h.Events.Delete, guard...)
	api.POST("/events/:id/rsvp", h.Events.RSVP, guard...)
	api.POST("/events/:id/invite", h.Events.Invite, guard...)
	api.GET("/events/:id/attendees", h.Events.Attendees, guard...)
}

// healthHandler reports 503 when a required dependency is down. Optional
// dependencies are reported without failing the check.
func healthHandler(checks []HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				results[check.Name] = fmt.Sprintf("unavailable: %v", err)
				if check.Required {
					status = http.StatusServiceUnavailable
				}
				continue
			}
			results[check.Name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		return c.JSON(status, echo.Map{"status": overall, "checks": results})
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports JSON field names.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
