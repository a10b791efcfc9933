// Package model contains domain models passed between layers.
package model

import "time"

// EventType identifies the kind of raw interaction event.
type EventType string

// Raw event types produced by capture sources.
const (
	EventKeyboard     EventType = "keyboard"
	EventMouse        EventType = "mouse"
	EventWindowSwitch EventType = "window_switch"
	EventFileAccess   EventType = "file_access"
)

// Mouse actions carried in the mouse payload.
const (
	MouseMove  = "move"
	MouseClick = "click"
)

// Keyboard actions carried in the keyboard payload.
const (
	KeyDown = "down"
	KeyUp   = "up"
)

// WindowInfo describes the active window at capture time.
type WindowInfo struct {
	Title       string `json:"title"`
	Application string `json:"application"`
	PID         int    `json:"pid"`
}

// RawEvent is a single captured input or context-change record.
// Events are append-only: produced once by a capture source and read-only
// thereafter. Timestamps are monotonic-ish but not enforced.
type RawEvent struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Window    WindowInfo `json:"window"`

	// Keyboard payload.
	Key       string `json:"key,omitempty"`
	KeyAction string `json:"key_action,omitempty"`

	// Mouse payload.
	MouseAction string  `json:"mouse_action,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Button      string  `json:"button,omitempty"`

	// Window-switch payload.
	FromWindow string `json:"from_window,omitempty"`
	ToWindow   string `json:"to_window,omitempty"`

	// File-access payload.
	Path string `json:"path,omitempty"`
}

// MetricSnapshot maps named scalar scores computed from a finite window of
// raw events. Snapshots are recomputed from scratch each window and never
// mutated in place.
type MetricSnapshot struct {
	SessionID   string             `json:"session_id"`
	Timestamp   time.Time          `json:"timestamp"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	EventCount  int                `json:"event_count"`
	Scores      map[string]float64 `json:"scores"`

	// Domain scores and the overall composite, all in [0,1].
	MemoryScore     float64 `json:"memory_score"`
	ExecutiveScore  float64 `json:"executive_score"`
	LanguageScore   float64 `json:"language_score"`
	PerceptionScore float64 `json:"perception_score"`
	CognitiveLoad   float64 `json:"cognitive_load"`
}

// TimeScale identifies the temporal granularity of a pattern.
type TimeScale string

// Pattern time scales, narrowest first.
const (
	ScaleMicro TimeScale = "micro" // seconds to minutes
	ScaleMeso  TimeScale = "meso"  // minutes to hours
	ScaleMacro TimeScale = "macro" // days
)

// Pattern is a classification of a window of metric activity.
// Patterns are ephemeral and pruned by age.
type Pattern struct {
	ID         string             `json:"id"`
	Scale      TimeScale          `json:"scale"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    time.Time          `json:"end_time"`
	Type       string             `json:"type"`
	Confidence float64            `json:"confidence"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ResonanceType labels a higher-level classification over pattern sequences.
type ResonanceType string

// Resonance classifications.
const (
	ResonanceLearning    ResonanceType = "learning"
	ResonanceInsight     ResonanceType = "insight"
	ResonanceIntegration ResonanceType = "integration"
	ResonanceInnovation  ResonanceType = "innovation"
)

// Resonance is a heuristic label over a sequence of patterns. Same
// lifecycle as Pattern: produced, logged, eventually pruned from memory.
type Resonance struct {
	ID           string             `json:"id"`
	Type         ResonanceType      `json:"type"`
	Strength     float64            `json:"strength"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	PatternTypes []string           `json:"pattern_types"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Duration returns the resonance time span in seconds.
func (r Resonance) Duration() float64 {
	return r.EndTime.Sub(r.StartTime).Seconds()
}
