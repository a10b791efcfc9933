// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile optionally tees process logs into a debug file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory raw event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event processing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the ingest idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// EventLogDir is the directory for session JSONL logs.
	EventLogDir string `koanf:"event_log_dir"`

	// ReplayFile optionally replays a recorded session log at startup.
	ReplayFile string `koanf:"replay_file"`

	// ReplayPacing divides recorded inter-event gaps; 0 replays unpaced.
	ReplayPacing float64 `koanf:"replay_pacing"`

	// FlushThreshold triggers an event log flush when the buffer reaches it.
	FlushThreshold int `koanf:"flush_threshold"`

	// FlushIntervalS triggers an event log flush after this many seconds.
	FlushIntervalS int `koanf:"flush_interval_s"`

	// EventBufferMax caps retained events when flushes keep failing.
	EventBufferMax int `koanf:"event_buffer_max"`

	// DBPath is the SQLite file for snapshot/pattern persistence.
	DBPath string `koanf:"db_path"`

	// Analysis loop intervals in seconds (micro/meso/macro).
	MicroIntervalS int `koanf:"micro_interval_s"`
	MesoIntervalS  int `koanf:"meso_interval_s"`
	MacroIntervalS int `koanf:"macro_interval_s"`

	// SnapshotWindowS is the event window a metric snapshot covers.
	SnapshotWindowS int `koanf:"snapshot_window_s"`

	// WindowBufferSize bounds the live in-memory event window.
	WindowBufferSize int `koanf:"window_buffer_size"`

	// ResonanceThreshold is the minimum strength for emitting a resonance.
	ResonanceThreshold float64 `koanf:"resonance_threshold"`

	// MaxReadLimit caps ?limit on read endpoints.
	MaxReadLimit int `koanf:"max_read_limit"`

	// BroadcastIntervalS controls the dashboard socket push cadence.
	BroadcastIntervalS int `koanf:"broadcast_interval_s"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		LogFile:            "",
		Addr:               ":9184",
		EventQueueSize:     100_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         50_000,
		EventLogDir:        "interaction_logs",
		ReplayFile:         "",
		ReplayPacing:       0,
		FlushThreshold:     100,
		FlushIntervalS:     30,
		EventBufferMax:     5_000,
		DBPath:             "cogbridge.db",
		MicroIntervalS:     1,
		MesoIntervalS:      60,
		MacroIntervalS:     300,
		SnapshotWindowS:    60,
		WindowBufferSize:   10_000,
		ResonanceThreshold: 0.6,
		MaxReadLimit:       100,
		BroadcastIntervalS: 1,
	}
	return c
}
