package server

import (
	"github.com/Lutefd/logpulse/internal/handler"
	"github.com/Lutefd/logpulse/internal/metrics"
	api_middleware "github.com/Lutefd/logpulse/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) registerRoutes() {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(api_middleware.BlacklistGuard(s.services.Blacklist))

	authMiddleware := api_middleware.NewAuthMiddleware(s.config.AdminAPIKeyHash)
	rateLimiter := s.services.RateLimiter
	if rateLimiter == nil {
		rateLimiter = api_middleware.NewRateLimiter(s.config.RateLimitPerMinute)
	}

	router.Get("/healthz", handler.HandlerReadiness)
	router.Handle("/metrics", metrics.Handler())

	logHandler := handler.NewLogHandler(s.services.Ingest, s.services.Logs)
	projectHandler := handler.NewProjectHandler(s.services.Projects)
	pingHandler := handler.NewPingHandler(s.services.Pings)
	blacklistHandler := handler.NewBlacklistHandler(s.services.Blacklist)
	settingsHandler := handler.NewSettingsHandler(s.services.Settings)

	router.Route("/logs", func(r chi.Router) {
		r.With(rateLimiter.Limit).Post("/", logHandler.Ingest)
		r.With(authMiddleware.Authenticate).Get("/", logHandler.Query)
		r.With(authMiddleware.Authenticate).Delete("/{uuid}", logHandler.Delete)
	})
	router.Route("/projects", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", projectHandler.Create)
		r.Get("/", projectHandler.List)
		r.Route("/{uuid}", func(r chi.Router) {
			r.Get("/", projectHandler.Get)
			r.Put("/", projectHandler.Update)
			r.Delete("/", projectHandler.Delete)

			r.Post("/ping-services", pingHandler.Register)
			r.Get("/ping-services", pingHandler.List)
			r.Post("/ping-services/check", pingHandler.Check)
			r.Put("/ping-services/{id}", pingHandler.Update)
			r.Delete("/ping-services/{id}", pingHandler.Delete)
		})
	})
	router.Route("/blacklist", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", blacklistHandler.Create)
		r.Get("/", blacklistHandler.List)
		r.Put("/{ip}", blacklistHandler.Update)
		r.Delete("/{ip}", blacklistHandler.Delete)
	})
	router.Route("/settings", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/rate-limit", settingsHandler.GetRateLimit)
		r.Put("/rate-limit", settingsHandler.UpdateRateLimit)
	})
	s.router = router
}
