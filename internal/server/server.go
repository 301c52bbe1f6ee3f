package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/logger"
	api_middleware "github.com/Lutefd/logpulse/internal/middleware"
	"github.com/Lutefd/logpulse/internal/service"
)

type Services struct {
	Ingest    service.IngestServiceInterface
	Logs      service.LogServiceInterface
	Projects  service.ProjectServiceInterface
	Pings     service.PingServiceInterface
	Blacklist service.BlacklistServiceInterface
	Settings  service.SettingsServiceInterface

	// RateLimiter guards ingestion. It is shared with Settings so limit
	// changes apply to live traffic; nil builds one from the config.
	RateLimiter *api_middleware.RateLimiter
}

type Server struct {
	port     int
	router   http.Handler
	config   commons.Config
	services Services
}

func NewServer(config commons.Config, services Services) *Server {
	server := &Server{
		port:     int(config.ServerPort),
		config:   config,
		services: services,
	}
	server.registerRoutes()
	return server
}

func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Infof("starting server on port %d", s.port)
	ch := make(chan error, 1)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		IdleTimeout:  commons.ServerIdleTimeout,
		ReadTimeout:  commons.ServerReadTimeout,
		WriteTimeout: commons.ServerWriteTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- fmt.Errorf("failed to start server: %w", err)
		}
		close(ch)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
