package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/server/handler"
	"github.com/sevigo/build-herald/internal/storage"
)

// NewRouter creates and configures a new HTTP router with middleware and API
// routes. The journal routes are only mounted when store is not nil.
func NewRouter(cfg *config.Config, dispatcher core.EventDispatcher, store storage.Store, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		eventHandler := handler.NewEventHandler(cfg.Server.IngestToken, dispatcher, logger)
		r.With(eventHandler.Authenticate).Post("/events/{topic}", eventHandler.Handle)

		if store != nil {
			stateHandler := handler.NewStateHandler(store, logger)
			r.Get("/builds", stateHandler.Recent)
			r.Get("/builds/{id}/states", stateHandler.Build)
		}
	})

	return r
}
