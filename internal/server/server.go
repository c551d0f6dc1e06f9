// Package server exposes the forecasting engine over HTTP: dataset upload,
// the model catalog, single-model prediction, full comparison and a
// WebSocket progress stream for compare runs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"market-forecast-lab/internal/forecast"
	"market-forecast-lab/internal/observability"
	"market-forecast-lab/internal/storage"
)

// Options for creating a Server.
type Options struct {
	// Required model catalog.
	Registry *forecast.Registry

	// Required dataset catalog.
	Datasets storage.DatasetStore

	// Optional run history. When set, /api/predict persists each run.
	Runs storage.ForecastRunStore

	// Optional evaluation history. When set, /api/compare persists the
	// scored results of dataset-backed runs.
	Evaluations storage.EvaluationStore

	Host string
	Port int

	Logger zerolog.Logger
}

// Server wraps an echo instance with the API routes registered.
type Server struct {
	echo     *echo.Echo
	registry *forecast.Registry
	datasets storage.DatasetStore
	runs     storage.ForecastRunStore
	evals    storage.EvaluationStore
	host     string
	port     int
	logger   zerolog.Logger
}

// New creates a Server with all routes and middleware registered.
func New(opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}

	s := &Server{
		registry: opts.Registry,
		datasets: opts.Datasets,
		runs:     opts.Runs,
		evals:    opts.Evaluations,
		host:     opts.Host,
		port:     opts.Port,
		logger:   opts.Logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.requestMetrics)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	api := e.Group("/api")
	api.GET("/models", s.listModels)
	api.POST("/datasets", s.uploadDataset)
	api.GET("/datasets/:id", s.getDataset)
	api.POST("/predict", s.predict)
	api.POST("/compare", s.compare)
	api.GET("/compare/stream", s.compareStream)

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))

	s.echo = e
	return s
}

// Echo returns the underlying echo instance, used by tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info().Str("addr", addr).Msg("http server listening")
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

// requestMetrics logs each request and feeds the duration histogram.
func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		elapsed := time.Since(start)
		status := c.Response().Status
		observability.RecordHTTPRequest(
			c.Request().Method, c.Path(), strconv.Itoa(status), elapsed.Seconds(),
		)
		s.logger.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("http request")
		return nil
	}
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
