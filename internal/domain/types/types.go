// Package types contains common read shapes used across the application
package types

import "time"

// Snapshot mirrors the metric snapshot shape returned by read endpoints
// and broadcast over the dashboard socket.
type Snapshot struct {
	SessionID     string             `json:"session_id"`
	Timestamp     time.Time          `json:"timestamp"`
	EventCount    int                `json:"event_count"`
	Scores        map[string]float64 `json:"scores"`
	CognitiveLoad float64            `json:"cognitive_load"`
}

// Pattern mirrors the classified pattern shape returned by read endpoints.
type Pattern struct {
	Scale      string    `json:"scale"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
}

// Resonance mirrors the resonance shape returned by read endpoints.
type Resonance struct {
	Type      string    `json:"type"`
	Strength  float64   `json:"strength"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
