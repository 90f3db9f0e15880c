package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/web/handlers"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
	"github.com/kozaktomas/face-registry/internal/web/static"
)

func (s *Server) setupRoutes() {
	pagesHandler := handlers.NewPageHandler(s.registry, s.flash, s.templates, s.log)
	enrolleeHandler := handlers.NewEnrolleeHandler(s.registry, s.log)
	recognizeHandler := handlers.NewRecognizeHandler(s.registry)
	imageHandler := handlers.NewImageHandler(s.storage, s.log)

	limit := middleware.RateLimit(s.config.Server.RateLimit, s.config.Server.Burst)

	// HTML form surface
	s.router.Get("/", pagesHandler.Index)
	s.router.Get("/register", pagesHandler.RegisterForm)
	s.router.Get("/enrollees", pagesHandler.Enrollees)
	s.router.With(limit).Post("/register", pagesHandler.Register)
	s.router.With(limit).Post("/recognize", pagesHandler.Recognize)
	s.router.Get("/uploads/{name}", imageHandler.Get)
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(static.Assets())))

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", s.metrics.Handler())

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/enrollees", enrolleeHandler.List)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/enrollees", enrolleeHandler.Create)
			r.Post("/recognize", recognizeHandler.Recognize)
		})
	})
}
