// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// defaultReadLimit applies when a query omits the limit parameter.
const defaultReadLimit = 20

// SnapshotDependencies defines the interface for snapshot queries.
type SnapshotDependencies interface {
	RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}

// SnapshotsHandler handles metric snapshot queries.
type SnapshotsHandler struct {
	deps     SnapshotDependencies
	maxLimit int
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies, maxLimit int) *SnapshotsHandler {
	return &SnapshotsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetSnapshots handles GET /snapshots?limit=N requests.
func (h *SnapshotsHandler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_snapshots"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snapshots, err := h.deps.RecentSnapshots(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// parseLimit reads the limit query parameter, defaulting when absent and
// clamping to maxLimit. Non-numeric or non-positive values are rejected.
func parseLimit(r *http.Request, maxLimit int) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultReadLimit, nil
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
