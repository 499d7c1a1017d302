package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/stockmanager/core/docs"
	httpHandlers "github.com/stockmanager/core/internal/adapters/http"
	"github.com/stockmanager/core/internal/infrastructure/config"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	logger      *logger.Logger
	itemService ports.ItemService
	storage     ports.DocumentStore
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance. Extra collectors, such as the item store
// operation counter, are exposed on /metrics next to the HTTP metrics.
func New(cfg *config.Config, itemService ports.ItemService, storage ports.DocumentStore, appLogger *logger.Logger, collectors ...prometheus.Collector) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	renderer, err := httpHandlers.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	server := &Server{
		echo:        e,
		config:      cfg,
		logger:      appLogger.WithComponent("http"),
		itemService: itemService,
		storage:     storage,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled {
		if err := server.setupMetrics(collectors...); err != nil {
			return nil, err
		}
	}

	// Setup routes
	server.setupRoutes(
		httpHandlers.NewItemHandler(itemService, appLogger),
		httpHandlers.NewViewHandler(itemService, appLogger),
	)

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(itemHandler *httpHandlers.ItemHandler, viewHandler *httpHandlers.ViewHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Server-rendered page
	viewHandler.Register(s.echo)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	itemHandler.Register(v1.Group("/items"))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics(collectors ...prometheus.Collector) error {
	registry := prometheus.NewRegistry()

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

	itemsTotal := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "stockmanager_items",
			Help: "Number of items in the inventory",
		},
		func() float64 {
			return float64(s.itemService.Summary(context.Background(), "").TotalItems)
		},
	)

	lowStockTotal := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "stockmanager_low_stock_items",
			Help: "Number of items below the low-stock threshold",
		},
		func() float64 {
			return float64(s.itemService.Summary(context.Background(), "").LowStockItems)
		},
	)

	registry.MustRegister(requestsTotal, requestDuration, itemsTotal, lowStockTotal)
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

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

	return nil
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.storage.HealthCheck(c.Request().Context()); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status": "error",
			"driver": s.config.Storage.Driver,
			"error":  err.Error(),
		}
	} else {
		checks["storage"] = map[string]interface{}{
			"status":   "ok",
			"driver":   s.config.Storage.Driver,
			"document": s.config.Storage.Document,
		}
	}

	checks["inventory"] = s.itemService.Summary(c.Request().Context(), "")

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.storage.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
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

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// Run serves on address until ctx is cancelled, then shuts down within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context, address string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
