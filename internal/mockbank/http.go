// Package mockbank serves a small bank-style API used to exercise the checks
// end to end: an HTML home page, token login, a profile and accounts with
// transactions.
package mockbank

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"contractcheck/internal/observability"
)

// DefaultBodySizeLimit caps request bodies.
const DefaultBodySizeLimit = "1M"

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
	store   *Store
}

// Config holds server configuration options
type Config struct {
	Username       string // Seeded user's login name
	Password       string // Seeded user's password
	MetricsEnabled bool   // Whether to expose Prometheus metrics on /metrics
	Logger         *slog.Logger
}

// New creates a new mock bank server with a freshly seeded store
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	store := NewStore(cfg.Username, cfg.Password)
	handler := NewHandler(store)

	authSkipPaths := []string{"/", "/health", "/api/login"}

	// Global middleware stack (order matters)
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(DefaultBodySizeLimit))

	if cfg.MetricsEnabled {
		metrics := observability.NewServerMetrics()
		authSkipPaths = append(authSkipPaths, "/metrics")
		e.Use(metricsMiddleware(metrics))
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	e.Use(AuthMiddleware(store, authSkipPaths))

	// Public routes
	e.GET("/", handler.Home)
	e.GET("/health", handler.Health)
	e.POST("/api/login", handler.Login)

	// Authenticated routes
	e.GET("/api/profile", handler.Profile)
	e.GET("/api/accounts/:id", handler.Account)
	e.POST("/api/accounts/:id/transactions", handler.AddTransaction)

	return &Server{
		echo:    e,
		handler: handler,
		store:   store,
	}
}

// Store exposes the server state, mainly for tests.
func (s *Server) Store() *Store {
	return s.store
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

func metricsMiddleware(m *observability.ServerMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			m.ObserveRequest(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}
