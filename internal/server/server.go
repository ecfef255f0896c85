// Package server exposes the HTTP endpoint that accepts build events and
// serves journal lookups.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/storage"
)

const (
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 10 * time.Second
	idleTimeout       = 120 * time.Second
	// drainTimeout bounds how long in-flight event posts may take to finish.
	drainTimeout = 15 * time.Second
)

// Server is the ingestion endpoint for build events.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer builds the ingestion endpoint. Accepted events are handed to
// dispatcher; store answers build state lookups.
func NewServer(cfg *config.Config, dispatcher core.EventDispatcher, store storage.Store, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           NewRouter(cfg, dispatcher, store, logger),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       requestTimeout,
			WriteTimeout:      requestTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
	}
}

// Start accepts build events until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("accepting build events", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ingestion endpoint on %s failed: %w", s.server.Addr, err)
	}
	return nil
}

// Stop refuses new build events and waits for in-flight posts to drain.
func (s *Server) Stop() error {
	s.logger.Info("no longer accepting build events, draining in-flight posts", "timeout", drainTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("ingestion endpoint did not drain: %w", err)
	}
	return nil
}
