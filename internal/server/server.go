// Package server exposes the wallet analysis pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"walletscore/internal/config"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	log        *logrus.Logger
}

// New builds the server around the given handler with the configured
// timeouts.
func New(cfg *config.Config, handler http.Handler, log *logrus.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
