// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cogbridge/cogbridge/internal/domain/dedupe"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.RawEvent) bool

	// Read operations expose analysis results.
	LatestSnapshot(ctx context.Context) (Snapshot, bool)
	RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
	PatternsByScale(ctx context.Context, scale string, limit int) ([]Pattern, error)
	RecentResonances(ctx context.Context, limit int) ([]Resonance, error)
}

// Read shapes returned by query handlers.
type (
	Snapshot  = types.Snapshot
	Pattern   = types.Pattern
	Resonance = types.Resonance
)

// Server wires HTTP routes for the monitoring API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	eventsHandler     *EventsHandler
	currentHandler    *CurrentMetricsHandler
	snapshotsHandler  *SnapshotsHandler
	patternsHandler   *PatternsHandler
	resonancesHandler *ResonancesHandler
	dashboardHandler  *dashboardHandler
	hub               *Hub
}

// NewServer creates a new API server with all handlers. The hub carries
// live updates to dashboard sockets and may be shared with the service
// layer; pass nil to disable the /ws route.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, hub *Hub) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		eventsHandler:     NewEventsHandler(deps),
		currentHandler:    NewCurrentMetricsHandler(deps),
		snapshotsHandler:  NewSnapshotsHandler(deps, maxLimit),
		patternsHandler:   NewPatternsHandler(deps, maxLimit),
		resonancesHandler: NewResonancesHandler(deps, maxLimit),
		dashboardHandler:  newdashboardHandler(),
		hub:               hub,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/metrics/current", MetricsMiddleware(s.currentHandler.HandleGetCurrent, "metrics_current"))
	mux.HandleFunc("/snapshots", MetricsMiddleware(s.snapshotsHandler.HandleGetSnapshots, "snapshots"))
	mux.HandleFunc("/patterns", MetricsMiddleware(s.patternsHandler.HandleGetPatterns, "patterns"))
	mux.HandleFunc("/resonances", MetricsMiddleware(s.resonancesHandler.HandleGetResonances, "resonances"))
	if s.hub != nil {
		mux.Handle("/ws", s.hub.Handler())
	}
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	EventID   string `json:"id"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`

	Window struct {
		Title       string `json:"title"`
		Application string `json:"application"`
		PID         int    `json:"pid"`
	} `json:"window"`

	Key       string `json:"key,omitempty"`
	KeyAction string `json:"key_action,omitempty"`

	MouseAction string  `json:"mouse_action,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Button      string  `json:"button,omitempty"`

	FromWindow string `json:"from_window,omitempty"`
	ToWindow   string `json:"to_window,omitempty"`

	Path string `json:"path,omitempty"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing type")
	case strings.TrimSpace(e.Timestamp) == "":
		return errors.New("missing timestamp")
	}
	switch model.EventType(e.Type) {
	case model.EventKeyboard, model.EventMouse, model.EventWindowSwitch, model.EventFileAccess:
	default:
		return errors.New("unknown event type")
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		return errors.New("invalid timestamp; must be RFC3339")
	}
	return nil
}

// toEvent converts a validated request into the domain event. Requests
// without an id get one assigned so downstream stages never see blanks.
func (e eventRequest) toEvent() model.RawEvent {
	id := strings.TrimSpace(e.EventID)
	if id == "" {
		id = uuid.New().String()
	}
	ts, _ := time.Parse(time.RFC3339, e.Timestamp)
	return model.RawEvent{
		ID:        id,
		SessionID: e.SessionID,
		Type:      model.EventType(e.Type),
		Timestamp: ts,
		Window: model.WindowInfo{
			Title:       e.Window.Title,
			Application: e.Window.Application,
			PID:         e.Window.PID,
		},
		Key:         e.Key,
		KeyAction:   e.KeyAction,
		MouseAction: e.MouseAction,
		X:           e.X,
		Y:           e.Y,
		Button:      e.Button,
		FromWindow:  e.FromWindow,
		ToWindow:    e.ToWindow,
		Path:        e.Path,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
