package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/screening"
	"github.com/ocr-screening/internal/web/handlers"
	"github.com/ocr-screening/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	service    *screening.Service
	httpServer *http.Server
	router     *mux.Router
	logger     zerolog.Logger
}

// NewServer creates a new web server instance
func NewServer(config *Config, service *screening.Service, logger zerolog.Logger) *Server {
	server := &Server{
		config:  config,
		service: service,
		logger:  logger,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	screenHandler := &handlers.ScreenHandler{
		Service:       s.service,
		MaxTextBytes:  s.config.Limits.MaxTextBytes,
		MaxImageBytes: s.config.Limits.MaxImageBytes,
	}
	catalogHandler := &handlers.CatalogHandler{
		Catalog: s.service.Catalog(),
		Matcher: s.service.Matcher(),
	}

	s.router.HandleFunc("/health", handlers.Health).Methods("GET")

	// Routes stay on the root router so a wrong method answers 405.
	s.router.HandleFunc("/api/screen", screenHandler.Screen).Methods("POST")
	s.router.HandleFunc("/api/screen/image", screenHandler.ScreenImage).Methods("POST")

	s.router.HandleFunc("/api/catalog", catalogHandler.ListTests).Methods("GET")
	s.router.HandleFunc("/api/catalog/{key}", catalogHandler.GetTest).Methods("GET")
	s.router.HandleFunc("/api/match", catalogHandler.MatchName).Methods("GET")

	s.router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	s.router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)

	// Apply middleware
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recovery(s.logger))
}

// Start serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
