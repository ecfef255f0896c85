// Package handler provides HTTP handlers for the build-herald ingestion API.
package handler

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/events"
	"github.com/sevigo/build-herald/internal/jobs"
)

// TokenHeader carries the shared ingestion secret.
const TokenHeader = "X-Herald-Token"

// maxEventSize bounds an ingested record.
const maxEventSize = 1 << 20

// EventHandler accepts build lifecycle records over HTTP.
type EventHandler struct {
	token      string
	dispatcher core.EventDispatcher
	logger     *slog.Logger
}

// NewEventHandler creates a handler queuing events on dispatcher. An empty
// token disables authentication.
func NewEventHandler(token string, dispatcher core.EventDispatcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		token:      token,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Authenticate rejects requests without the configured token.
func (h *EventHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(TokenHeader)), []byte(h.token)) != 1 {
			h.logger.Warn("rejected event with invalid token", "remote", r.RemoteAddr)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handle decodes the record for the topic in the URL and queues it.
func (h *EventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize+1))
	if err != nil {
		h.logger.Error("could not read event body", "error", err)
		http.Error(w, "Could not read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxEventSize {
		http.Error(w, "Event too large", http.StatusRequestEntityTooLarge)
		return
	}

	event, err := events.Decode(topic, body)
	if err != nil {
		h.logger.Debug("could not decode event", "topic", topic, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		if errors.Is(err, jobs.ErrInvalidEvent) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("failed to dispatch event", "error", err, "topic", topic, "key", event.Key())
		http.Error(w, "Failed to queue event", http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug("event queued", "topic", topic, "key", event.Key())
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Event accepted")
}
