// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// CurrentMetricsDependencies defines the interface for live metric reads.
type CurrentMetricsDependencies interface {
	LatestSnapshot(ctx context.Context) (Snapshot, bool)
}

// CurrentMetricsHandler handles live metric requests.
type CurrentMetricsHandler struct {
	deps CurrentMetricsDependencies
}

// NewCurrentMetricsHandler creates a new current metrics handler.
func NewCurrentMetricsHandler(deps CurrentMetricsDependencies) *CurrentMetricsHandler {
	return &CurrentMetricsHandler{deps: deps}
}

// HandleGetCurrent handles GET /metrics/current requests. It serves the
// most recent in-memory snapshot; 404 until the first analysis tick runs.
func (h *CurrentMetricsHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_current_metrics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, ok := h.deps.LatestSnapshot(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNoSnapshot))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
