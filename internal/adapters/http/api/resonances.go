// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// ResonanceDependencies defines the interface for resonance queries.
type ResonanceDependencies interface {
	RecentResonances(ctx context.Context, limit int) ([]Resonance, error)
}

// ResonancesHandler handles resonance event queries.
type ResonancesHandler struct {
	deps     ResonanceDependencies
	maxLimit int
}

// NewResonancesHandler creates a new resonances handler.
func NewResonancesHandler(deps ResonanceDependencies, maxLimit int) *ResonancesHandler {
	return &ResonancesHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetResonances handles GET /resonances?limit=N requests.
func (h *ResonancesHandler) HandleGetResonances(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_resonances"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resonances, err := h.deps.RecentResonances(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if resonances == nil {
		resonances = []Resonance{}
	}
	writeJSON(w, http.StatusOK, resonances)
}
