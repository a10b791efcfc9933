package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cogbridge/cogbridge/internal/adapters/http/api"
	app "github.com/cogbridge/cogbridge/internal/app"
	"github.com/cogbridge/cogbridge/internal/capture"
	"github.com/cogbridge/cogbridge/internal/config"
	"github.com/cogbridge/cogbridge/pkg/logger"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	loggerOpts := []logger.Option{}
	if cfg.LogFile != "" {
		loggerOpts = append(loggerOpts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(loggerOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Live update hub shared by the service and the websocket route.
	hub := api.NewHub(api.WithHubLogger(loggerInstance.Named("ws")))

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithEventLogDir(cfg.EventLogDir),
		app.WithFlushThreshold(cfg.FlushThreshold),
		app.WithFlushInterval(time.Duration(cfg.FlushIntervalS)*time.Second),
		app.WithEventBufferMax(cfg.EventBufferMax),
		app.WithDBPath(cfg.DBPath),
		app.WithAnalysisIntervals(
			time.Duration(cfg.MicroIntervalS)*time.Second,
			time.Duration(cfg.MesoIntervalS)*time.Second,
			time.Duration(cfg.MacroIntervalS)*time.Second,
		),
		app.WithSnapshotWindow(time.Duration(cfg.SnapshotWindowS)*time.Second),
		app.WithWindowBufferSize(cfg.WindowBufferSize),
		app.WithResonanceThreshold(cfg.ResonanceThreshold),
		app.WithBroadcaster(hub),
		app.WithBroadcastInterval(time.Duration(cfg.BroadcastIntervalS)*time.Second),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Optionally replay a recorded session into the pipeline.
	if cfg.ReplayFile != "" {
		go replaySession(ctx, loggerInstance, svc, cfg.ReplayFile, cfg.ReplayPacing)
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, cfg.MaxReadLimit, hub)
	apiServer.Register(ctx, mux, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// replaySession feeds a recorded JSONL session log through the same
// ingestion path live events take.
func replaySession(ctx context.Context, log logger.Logger, svc *app.Service, path string, pacing float64) {
	log.Info(ctx, "replaying session log", logger.String("path", path))

	src := capture.NewReplaySource(path, capture.WithPacing(pacing))
	count, dropped := 0, 0
	for e := range src.Events(ctx) {
		if svc.Enqueue(ctx, e) {
			count++
		} else {
			dropped++
		}
	}
	if err := src.Err(); err != nil {
		log.Error(ctx, "session replay failed", logger.Error(err))
		return
	}
	log.Info(ctx, "session replay finished",
		logger.Int("enqueued", count),
		logger.Int("dropped", dropped),
	)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
