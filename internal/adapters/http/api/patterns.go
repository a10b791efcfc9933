// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// PatternDependencies defines the interface for pattern queries.
type PatternDependencies interface {
	PatternsByScale(ctx context.Context, scale string, limit int) ([]Pattern, error)
}

// PatternsHandler handles classified pattern queries.
type PatternsHandler struct {
	deps     PatternDependencies
	maxLimit int
}

// NewPatternsHandler creates a new patterns handler.
func NewPatternsHandler(deps PatternDependencies, maxLimit int) *PatternsHandler {
	return &PatternsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetPatterns handles GET /patterns?scale=S&limit=N requests.
func (h *PatternsHandler) HandleGetPatterns(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_patterns"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	scale := r.URL.Query().Get("scale")
	if scale == "" {
		scale = string(model.ScaleMicro)
	}
	switch model.TimeScale(scale) {
	case model.ScaleMicro, model.ScaleMeso, model.ScaleMacro:
	default:
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("scale must be micro, meso or macro")))
		return
	}
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	patterns, err := h.deps.PatternsByScale(r.Context(), scale, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if patterns == nil {
		patterns = []Pattern{}
	}
	writeJSON(w, http.StatusOK, patterns)
}
