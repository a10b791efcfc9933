package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/cogbridge/cogbridge/internal/simulate"
	"github.com/cogbridge/cogbridge/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumEvents = 2000
	defaultRate      = 50.0
	defaultDuration  = 10 * time.Minute
	defaultTimeout   = 10 * time.Second
	defaultRunLimit  = 30 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9184", "Base URL of the monitor service")
		events   = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		rate     = flag.Float64("rate", defaultRate, "Submission rate in events per second (0 = unpaced)")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible runs")
		duration = flag.Duration("duration", defaultDuration, "Simulated activity span the timestamps cover")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Enable progress logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:   *baseURL,
		NumEvents: *events,
		Rate:      *rate,
		Seed:      *seed,
		Duration:  *duration,
		Timeout:   *timeout,
		Verbose:   *verbose,
	}

	if err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
