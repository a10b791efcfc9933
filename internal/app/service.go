// Package service provides the core monitoring service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogbridge/cogbridge/internal/adapters/eventlog"
	eventqueue "github.com/cogbridge/cogbridge/internal/adapters/mq/queue"
	workerpool "github.com/cogbridge/cogbridge/internal/adapters/mq/worker"
	"github.com/cogbridge/cogbridge/internal/adapters/repository"
	"github.com/cogbridge/cogbridge/internal/domain/dedupe"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/resonance"
	"github.com/cogbridge/cogbridge/internal/domain/types"
	"github.com/cogbridge/cogbridge/internal/domain/window"
	"github.com/cogbridge/cogbridge/pkg/logger"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

// Broadcaster pushes live updates to connected dashboard clients.
type Broadcaster interface {
	Broadcast(v any)
}

// Service implements the API dependencies for the cognitive monitor.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	eventLog   *eventlog.Writer
	window     *window.Buffer
	analyzer   *resonance.Analyzer
	workerPool *workerpool.Pool

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	eventLogDir        string
	flushThreshold     int
	flushInterval      time.Duration
	eventBufferMax     int
	dbPath             string
	microInterval      time.Duration
	mesoInterval       time.Duration
	macroInterval      time.Duration
	snapshotWindow     time.Duration
	windowBufferSize   int
	resonanceThreshold float64
	broadcastInterval  time.Duration

	broadcaster Broadcaster

	// Analysis state
	sessionID     string
	microMark     time.Time
	lastSnapshot  *model.MetricSnapshot
	microPatterns []model.Pattern
	mesoPatterns  []model.Pattern
	macroPatterns []model.Pattern
	pendingMeso   []model.Pattern
	pendingMacro  []model.Pattern
	resonances    []model.Resonance

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the ingest idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventLogDir sets the directory for session JSONL logs.
func WithEventLogDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.eventLogDir = dir
		}
	}
}

// WithFlushThreshold sets the event log flush threshold.
func WithFlushThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.flushThreshold = n
		}
	}
}

// WithFlushInterval sets the event log background flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// WithEventBufferMax caps retained event log entries during write failures.
func WithEventBufferMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.eventBufferMax = n
		}
	}
}

// WithDBPath sets the SQLite file for analysis persistence.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithAnalysisIntervals sets the micro, meso and macro loop cadences.
func WithAnalysisIntervals(micro, meso, macro time.Duration) Option {
	return func(s *Service) {
		if micro > 0 {
			s.microInterval = micro
		}
		if meso > 0 {
			s.mesoInterval = meso
		}
		if macro > 0 {
			s.macroInterval = macro
		}
	}
}

// WithSnapshotWindow sets the event window a metric snapshot covers.
func WithSnapshotWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotWindow = d
		}
	}
}

// WithWindowBufferSize bounds the live in-memory event window.
func WithWindowBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.windowBufferSize = n
		}
	}
}

// WithResonanceThreshold sets the minimum strength for emitting a resonance.
func WithResonanceThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.resonanceThreshold = threshold
		}
	}
}

// WithBroadcaster sets the live update sink for dashboard sockets.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		s.broadcaster = b
	}
}

// WithBroadcastInterval sets the dashboard socket push cadence.
func WithBroadcastInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.broadcastInterval = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU() * 2,
		queueSize:          100_000,
		dedupeSize:         50_000,
		eventLogDir:        "interaction_logs",
		flushThreshold:     100,
		flushInterval:      30 * time.Second,
		eventBufferMax:     5_000,
		dbPath:             "cogbridge.db",
		microInterval:      time.Second,
		mesoInterval:       time.Minute,
		macroInterval:      5 * time.Minute,
		snapshotWindow:     time.Minute,
		windowBufferSize:   10_000,
		resonanceThreshold: 0.6,
		broadcastInterval:  time.Second,
		stopCh:             make(chan struct{}),
		logger:             nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components and launches the analysis loops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting monitor service...")

	store, err := repository.Open(s.dbPath)
	if err != nil {
		return WrapKind("service.start", ErrOpenStore, err)
	}
	s.store = store

	eventLog, err := eventlog.NewWriter(s.eventLogDir,
		eventlog.WithFlushThreshold(s.flushThreshold),
		eventlog.WithFlushInterval(s.flushInterval),
		eventlog.WithMaxBuffer(s.eventBufferMax),
		eventlog.WithLogger(s.logger.Named("eventlog")),
	)
	if err != nil {
		_ = store.Close()
		return WrapKind("service.start", ErrOpenEventLog, err)
	}
	s.eventLog = eventLog

	s.deduper = dedupe.NewDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.window = window.NewBuffer(
		window.WithMaxSize(s.windowBufferSize),
	)
	s.analyzer = resonance.NewAnalyzer(
		resonance.WithThreshold(s.resonanceThreshold),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.eventLog, s.window)
	s.workerPool.Start(ctx)

	s.sessionID = uuid.New().String()
	s.microMark = time.Time{}
	s.stopCh = make(chan struct{})
	s.started = true
	s.runLoops(ctx)

	s.logger.Info(ctx, "monitor service started",
		logger.String("session", s.sessionID),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("eventLog", eventLog.Path()),
		logger.String("db", s.dbPath),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	pool, eventLog, store := s.workerPool, s.eventLog, s.store
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping monitor service...")

	// Loops first so nothing touches the store mid-shutdown.
	s.wg.Wait()

	if pool != nil {
		_ = pool.Shutdown(ctx)
	}
	if eventLog != nil {
		if err := eventLog.Close(); err != nil {
			s.logger.Error(ctx, "error closing event log", logger.Error(err))
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}

	s.logger.Info(ctx, "monitor service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e model.RawEvent) bool {
	ok := s.eventQueue.Enqueue(ctx, e)
	if ok {
		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	}
	return ok
}

// LatestSnapshot returns the most recent in-memory metric snapshot.
func (s *Service) LatestSnapshot(_ context.Context) (types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSnapshot == nil {
		return types.Snapshot{}, false
	}
	return snapshotView(*s.lastSnapshot), true
}

// RecentSnapshots returns persisted snapshots, newest first.
func (s *Service) RecentSnapshots(ctx context.Context, limit int) ([]types.Snapshot, error) {
	snaps, err := s.store.RecentSnapshots(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]types.Snapshot, len(snaps))
	for i, snap := range snaps {
		views[i] = snapshotView(snap)
	}
	return views, nil
}

// PatternsByScale returns persisted patterns at the given scale, newest first.
func (s *Service) PatternsByScale(ctx context.Context, scale string, limit int) ([]types.Pattern, error) {
	patterns, err := s.store.PatternsByScale(ctx, model.TimeScale(scale), limit)
	if err != nil {
		return nil, err
	}
	views := make([]types.Pattern, len(patterns))
	for i, p := range patterns {
		views[i] = patternView(p)
	}
	return views, nil
}

// RecentResonances returns persisted resonance events, newest first.
func (s *Service) RecentResonances(ctx context.Context, limit int) ([]types.Resonance, error) {
	resonances, err := s.store.RecentResonances(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]types.Resonance, len(resonances))
	for i, r := range resonances {
		views[i] = resonanceView(r)
	}
	return views, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	sessionID := s.sessionID
	microCount := len(s.microPatterns)
	mesoCount := len(s.mesoPatterns)
	macroCount := len(s.macroPatterns)
	s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if !started {
		return stats
	}

	stats["sessionID"] = sessionID
	stats["queueLength"] = s.eventQueue.Len(ctx)
	stats["dedupeEntries"] = s.Size()
	stats["windowEvents"] = s.window.Len()
	stats["eventLogBuffered"] = s.eventLog.Buffered()
	stats["eventLogDropped"] = s.eventLog.Dropped()
	stats["microPatterns"] = microCount
	stats["mesoPatterns"] = mesoCount
	stats["macroPatterns"] = macroCount

	if counts, err := s.store.Counts(ctx); err == nil {
		stats["storedSnapshots"] = counts.Snapshots
		stats["storedPatterns"] = counts.Patterns
		stats["storedResonances"] = counts.Resonances
	}

	metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	metrics.UpdateWorkerCount(s.workerCount)

	return stats
}

func snapshotView(snap model.MetricSnapshot) types.Snapshot {
	return types.Snapshot{
		SessionID:     snap.SessionID,
		Timestamp:     snap.Timestamp,
		EventCount:    snap.EventCount,
		Scores:        snap.Scores,
		CognitiveLoad: snap.CognitiveLoad,
	}
}

func patternView(p model.Pattern) types.Pattern {
	return types.Pattern{
		Scale:      string(p.Scale),
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		Type:       p.Type,
		Confidence: p.Confidence,
	}
}

func resonanceView(r model.Resonance) types.Resonance {
	return types.Resonance{
		Type:      string(r.Type),
		Strength:  r.Strength,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}
