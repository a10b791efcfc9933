// Package simulate generates synthetic desktop activity and drives it
// through a running monitor instance over HTTP.
package simulate

import "time"

// Config controls a simulation run.
type Config struct {
	// BaseURL of the monitor service, e.g. http://localhost:9184.
	BaseURL string

	// NumEvents to generate and submit.
	NumEvents int

	// Rate is the submission pace in events per second. Zero means
	// submit as fast as the service accepts.
	Rate float64

	// Seed makes a run reproducible.
	Seed int64

	// Duration is the simulated activity span the event timestamps cover.
	Duration time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Verbose enables per-event logging.
	Verbose bool
}

// Stats summarizes a run.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
}
