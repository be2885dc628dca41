package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/planner/docs"
	httpHandlers "github.com/taskmaster/planner/internal/adapters/http"
	"github.com/taskmaster/planner/internal/adapters/notify"
	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// Pinger is implemented by storage backends that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by storage backends with a connection pool
type StatsReporter interface {
	Stats() map[string]interface{}
}

// Deps are the application services the server exposes
type Deps struct {
	Store     *services.TaskStore
	Scheduler *services.NotificationScheduler
	Notifier  ports.Notifier
	Inbox     *notify.Inbox
	Auth      *services.AuthService
	Storage   ports.KeyValueStore
	Registry  *prometheus.Registry
}

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	deps   Deps
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps, appLogger *logger.Logger) (*Server, error) {
	if deps.Store == nil || deps.Scheduler == nil || deps.Notifier == nil {
		return nil, errors.New("server requires a task store, scheduler and notifier")
	}

	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.Debug = cfg.App.Debug || cfg.App.IsDevelopment()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("http"),
		deps:   deps,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled && deps.Registry != nil {
		server.setupMetrics(deps.Registry)
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
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
			l := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				l.WithError(values.Error).Errorw("HTTP request failed",
					"method", values.Method,
					"uri", values.URI,
					"status", values.Status,
				)
				return nil
			}
			l.LogHTTPRequest(values.Method, values.URI, values.UserAgent, values.RemoteIP,
				values.Status, float64(values.Latency.Nanoseconds())/1000000)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	secure := middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}
	if s.config.App.IsProduction() {
		secure.HSTSMaxAge = 31536000
	}
	s.echo.Use(middleware.SecureWithConfig(secure))

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	taskHandler := httpHandlers.NewTaskHandler(s.deps.Store, s.logger)
	calendarHandler := httpHandlers.NewCalendarHandler(services.NewAggregator(s.deps.Store), s.logger)
	goalHandler := httpHandlers.NewGoalHandler(s.deps.Store, s.logger)
	notificationHandler := httpHandlers.NewNotificationHandler(s.deps.Scheduler, s.deps.Notifier, s.deps.Inbox, s.logger)

	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	var guards []echo.MiddlewareFunc
	if s.deps.Auth != nil && s.deps.Auth.Enabled() {
		guards = append(guards, s.authMiddleware(s.deps.Auth))
	}
	v1 := s.echo.Group("/api/v1", guards...)

	// Task routes
	taskGroup := v1.Group("/tasks")
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.POST("/:id/toggle", taskHandler.ToggleTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)

	// Calendar and schedule routes
	v1.GET("/calendar/:yearMonth", calendarHandler.GetMonth)
	v1.GET("/schedule/day/:date", calendarHandler.GetDay)
	v1.GET("/schedule/week/:date", calendarHandler.GetWeek)
	v1.GET("/progress/:date", calendarHandler.GetProgress)
	v1.GET("/stamps", calendarHandler.GetStamps)

	// Goal routes
	goalGroup := v1.Group("/goals")
	goalGroup.GET("", goalHandler.ListGoals)
	goalGroup.GET("/:yearMonth", goalHandler.GetGoal)
	goalGroup.PUT("/:yearMonth", goalHandler.SetGoal)

	// Notification routes
	notifyGroup := v1.Group("/notifications")
	notifyGroup.GET("", notificationHandler.ListAlerts)
	notifyGroup.GET("/permission", notificationHandler.GetPermission)
	notifyGroup.POST("/permission", notificationHandler.RequestPermission)
	notifyGroup.DELETE("/permission", notificationHandler.RevokePermission)
	notifyGroup.POST("/sweep", notificationHandler.Sweep)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics(registry *prometheus.Registry) {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	check := map[string]interface{}{
		"driver": s.config.Storage.Driver,
		"status": "ok",
	}

	if p, ok := s.deps.Storage.(Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			status = "error"
			check["status"] = "error"
			check["error"] = err.Error()
		}
	}
	if r, ok := s.deps.Storage.(StatsReporter); ok {
		check["stats"] = r.Stats()
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]interface{}{
			"storage": check,
			"notifications": map[string]interface{}{
				"permitted": s.deps.Notifier.IsPermitted(),
				"notified":  len(s.deps.Scheduler.NotifiedIDs()),
			},
			"tasks": map[string]interface{}{
				"total":   len(s.deps.Store.Tasks()),
				"pending": len(s.deps.Store.Pending()),
			},
		},
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if p, ok := s.deps.Storage.(Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			s.logger.Warnw("Storage not ready", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "storage_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		resp := ports.ErrorResponse{Message: http.StatusText(code)}

		var ve validator.ValidationErrors
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			resp.Message = fmt.Sprint(he.Message)
			if he.Internal != nil {
				if c.Echo().Debug {
					resp.Details = map[string]interface{}{"error": he.Internal.Error()}
				}
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if errors.As(err, &ve) {
			code = http.StatusBadRequest
			resp.Message = "validation failed"
			resp.Details = map[string]interface{}{"fields": ve.Error()}
		} else if c.Echo().Debug {
			resp.Details = map[string]interface{}{"error": err.Error()}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, resp)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
