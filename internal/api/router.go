package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/moviehub/frontend-session/internal/api/handler"
	"github.com/moviehub/frontend-session/internal/api/metrics"
	"github.com/moviehub/frontend-session/internal/api/middleware"
	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/guard"
)

// Deps carries everything the router needs.
type Deps struct {
	Stores    middleware.StoreResolver
	Cookie    middleware.CookieConfig
	GuardWait time.Duration
	// Checks are the readiness checks, keyed by dependency name.
	Checks map[string]handler.Check
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(metrics.Middleware())

	client := middleware.Client(deps.Stores, deps.Cookie)
	guardCfg := middleware.GuardConfig{
		Wait:       deps.GuardWait,
		RetryAfter: time.Second,
		OnDecision: func(d guard.Decision) {
			metrics.GuardDecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()
		},
	}
	gate := func(req guard.Requirement) echo.MiddlewareFunc {
		return middleware.Guard(req, guardCfg)
	}

	// --- Session API ---
	authHandler := handler.NewAuthHandler()
	e.GET("/api/session", authHandler.Session, client)
	e.POST("/api/auth/login", authHandler.Login, client)
	e.POST("/api/auth/signup", authHandler.Signup, client)
	e.POST("/api/auth/logout", authHandler.Logout, client)
	e.DELETE("/api/auth/error", authHandler.ClearError, client)

	// --- Views ---
	views := handler.NewViewHandler()
	e.GET(guard.LoginPath, views.Login, client, gate(guard.Public()))
	for _, role := range domain.Roles() {
		home := guard.RoleHome(role)
		e.GET(home, views.Dashboard(home[1:]), client, gate(guard.Require(role)))
		e.GET(home+"/*", views.Dashboard(home[1:]), client, gate(guard.Require(role)))
	}

	// --- Health probes and metrics (no session) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("client_id", middleware.ClientID(c)).
				Msg("request")
			return nil
		},
	})
}
