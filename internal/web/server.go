package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/metrics"
	"github.com/kozaktomas/face-registry/internal/storage"
	"github.com/kozaktomas/face-registry/internal/web/handlers"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
	"github.com/kozaktomas/face-registry/internal/web/static"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	registry   handlers.Registry
	storage    storage.Storage
	metrics    *metrics.Metrics
	flash      *middleware.FlashStore
	templates  *template.Template
	log        *logrus.Logger
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, reg handlers.Registry, st storage.Storage, m *metrics.Metrics, log *logrus.Logger) (*Server, error) {
	tmpl, err := static.Templates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		config:    cfg,
		router:    r,
		registry:  reg,
		storage:   st,
		metrics:   m,
		flash:     middleware.NewFlashStore(cfg.Server.SecretKey),
		templates: tmpl,
		log:       log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // extraction of a large gallery can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Infof("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
