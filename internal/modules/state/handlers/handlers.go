// Package handlers provides HTTP handlers for state snapshot persistence.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/state"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	snapshots *state.SnapshotRepository
	log       zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(snapshots *state.SnapshotRepository, log zerolog.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		log:       log.With().Str("handler", "snapshots").Logger(),
	}
}

// RegisterRoutes registers all snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleList handles GET /api/snapshots
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.snapshots.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []state.SnapshotRecord{}
	}
	writeJSON(w, records)
}

// HandleGet handles GET /api/snapshots/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.snapshots.Load(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

// HandleDelete handles DELETE /api/snapshots/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Delete(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
