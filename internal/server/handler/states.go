package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/build-herald/internal/storage"
)

// StateHandler exposes the build state journal.
type StateHandler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewStateHandler creates a read-only journal handler.
func NewStateHandler(store storage.Store, logger *slog.Logger) *StateHandler {
	return &StateHandler{store: store, logger: logger}
}

// Build returns the states every reporter pushed for one build.
func (h *StateHandler) Build(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid build id", http.StatusBadRequest)
		return
	}
	states, err := h.store.GetBuildStates(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load build states", "build_id", id, "error", err)
		http.Error(w, "Failed to load build states", http.StatusInternalServerError)
		return
	}
	if len(states) == 0 {
		http.Error(w, "Build not found", http.StatusNotFound)
		return
	}
	writeJSON(w, states)
}

// Recent returns the most recently updated states.
func (h *StateHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	states, err := h.store.ListRecentBuildStates(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list build states", "error", err)
		http.Error(w, "Failed to list build states", http.StatusInternalServerError)
		return
	}
	writeJSON(w, states)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
