// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// Searcher answers text queries.
type Searcher interface {
	Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)
}

// Opener launches a file in its default application.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// SettingsStore reads and replaces the user settings.
type SettingsStore interface {
	Current() *core.Settings
	Save(ctx context.Context, next *core.Settings) (*core.Settings, error)
}

// Server provides the HTTP API.
type Server struct {
	echo     *echo.Echo
	searcher Searcher
	opener   Opener
	settings SettingsStore
	logger   *slog.Logger

	maxHits        int
	corsOrigins    []string
	metricsHandler http.Handler
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxHits sets the number of results returned when the request does not
// ask for a limit.
func WithMaxHits(n int) Option {
	return func(s *Server) error {
		if n > 0 {
			s.maxHits = n
		}
		return nil
	}
}

// WithCORSOrigins restricts the origins allowed by CORS. Default allows all.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) error {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
		return nil
	}
}

// WithMetricsHandler replaces the /metrics handler. Nil disables the route.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metricsHandler = h
		return nil
	}
}

// NewServer creates a server with its routes registered.
func NewServer(searcher Searcher, opener Opener, settings SettingsStore, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if opener == nil {
		return nil, ErrOpenerRequired
	}
	if settings == nil {
		return nil, ErrSettingsRequired
	}

	s := &Server{
		searcher:       searcher,
		opener:         opener,
		settings:       settings,
		logger:         slog.Default(),
		maxHits:        10,
		corsOrigins:    []string{"*"},
		metricsHandler: promhttp.Handler(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(s.observe)

	s.echo = e
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/search", s.handleSearch)

	api := s.echo.Group("/api")
	api.GET("/test", s.handleTest)
	api.POST("/open", s.handleOpen)
	api.GET("/settings", s.handleGetSettings)
	api.POST("/settings/paths", s.handleSaveSettings)

	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
