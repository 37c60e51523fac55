package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmate/core/docs"
	httpHandlers "github.com/taskmate/core/internal/adapters/http"
	"github.com/taskmate/core/internal/infrastructure/config"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/infrastructure/metrics"
	"github.com/taskmate/core/internal/ports"
)

// HealthCheck reports whether a backing service is reachable
type HealthCheck func(ctx context.Context) error

// ConnectionStats reports pool statistics for a backing service
type ConnectionStats func() map[string]interface{}

// Dependencies are the collaborators the HTTP server routes to
type Dependencies struct {
	Tasks     ports.TaskService
	Assistant ports.AssistantService
	Users     ports.UserService
	Verifier  ports.IdentityVerifier
	// Metrics is nil when metrics are disabled
	Metrics *metrics.Metrics
	Checks  map[string]HealthCheck
	Stats   map[string]ConnectionStats
}

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	deps   Dependencies
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) *Server {
	e := echo.New()

	e.Validator = httpHandlers.Validator{}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpHandlers.ErrorHandler(appLogger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("server"),
		deps:   deps,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	if s.deps.Metrics != nil {
		s.echo.Use(s.deps.Metrics.Middleware())
	}

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	if limit := s.config.Security.RateLimitRequests; limit > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Every(s.config.Security.RateLimitWindow / time.Duration(limit)),
				Burst:     limit,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if timeout := s.config.Server.RequestTimeout; timeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Skipper:      func(c echo.Context) bool { return strings.HasPrefix(c.Path(), "/swagger") },
			ErrorMessage: `{"success":false,"error":"Request timed out"}`,
			Timeout:      timeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	taskHandler := httpHandlers.NewTaskHandler(s.deps.Tasks, s.logger)
	assistantHandler := httpHandlers.NewAssistantHandler(s.deps.Assistant, s.logger)
	profileHandler := httpHandlers.NewProfileHandler(s.deps.Users, s.logger)

	v1 := s.echo.Group("/api/v1", s.authMiddleware())

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", profileHandler.Register)
	authGroup.GET("/profile", profileHandler.GetProfile)
	authGroup.PUT("/profile", profileHandler.UpdateProfile)
	authGroup.POST("/push-token", profileHandler.UpdatePushToken)
	authGroup.DELETE("/account", profileHandler.DeleteAccount)

	taskGroup := v1.Group("/tasks")
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/stats/overview", taskHandler.GetStatistics)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.POST("/:id/complete", taskHandler.MarkCompleted)
	taskGroup.POST("/:id/incomplete", taskHandler.MarkIncomplete)
	taskGroup.POST("/:id/reminder-sent", taskHandler.MarkReminderSent)

	aiGroup := v1.Group("/ai")
	aiGroup.POST("/chat", assistantHandler.Chat)
	aiGroup.POST("/task-suggestions", assistantHandler.TaskSuggestions)
	aiGroup.POST("/daily-plan", assistantHandler.DailyPlan)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) runChecks(ctx context.Context) (map[string]interface{}, bool) {
	healthy := true
	checks := make(map[string]interface{}, len(s.deps.Checks))

	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			healthy = false
			checks[name] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
			continue
		}
		checks[name] = map[string]interface{}{"status": "ok"}
	}

	return checks, healthy
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	checks, healthy := s.runChecks(c.Request().Context())

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	connections := make(map[string]interface{}, len(s.deps.Stats))
	for name, stats := range s.deps.Stats {
		connections[name] = stats()
	}

	return c.JSON(code, map[string]interface{}{
		"status":      status,
		"time":        time.Now().UTC().Format(time.RFC3339),
		"checks":      checks,
		"connections": connections,
		"storage":     s.config.Storage.Driver,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if _, healthy := s.runChecks(c.Request().Context()); !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "dependency_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server and blocks until it stops. A graceful
// shutdown is not reported as an error.
func (s *Server) Start() error {
	address := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	s.logger.Infow("Starting server", "address", address)

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}
