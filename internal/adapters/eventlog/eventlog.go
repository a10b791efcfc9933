// Package eventlog persists raw interaction events as append-only
// JSON-lines files, one file per tracking session.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/pkg/logger"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

const (
	defaultFlushThreshold = 100
	defaultFlushInterval  = 30 * time.Second
	defaultMaxBuffer      = 5_000

	sessionStampLayout = "20060102_150405"
	filePermission     = 0o600
	dirPermission      = 0o750
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithFlushThreshold sets the buffer size that triggers a flush.
func WithFlushThreshold(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.flushThreshold = n
		}
	}
}

// WithFlushInterval sets how often the background loop flushes
// regardless of buffer size.
func WithFlushInterval(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.flushInterval = d
		}
	}
}

// WithMaxBuffer caps how many events may be retained in memory across
// failed flushes. Oldest events are dropped beyond the cap. Zero or
// negative means uncapped.
func WithMaxBuffer(n int) Option {
	return func(w *Writer) {
		w.maxBuffer = n
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Writer) {
		w.log = log
	}
}

// Writer buffers events and appends them to the session's JSONL file.
// Delivery is weak at-least-once: a failed flush keeps the batch in
// memory for the next attempt, and nothing deduplicates a batch that
// was written but not acknowledged. Buffered events are lost on crash.
type Writer struct {
	mu             sync.Mutex
	buf            []model.RawEvent
	path           string
	flushThreshold int
	flushInterval  time.Duration
	maxBuffer      int
	dropped        int64
	log            logger.Logger

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewWriter creates a Writer appending to a new session file named
// interaction_log_<YYYYMMDD_HHMMSS>.jsonl under dir. The directory is
// created if missing.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateLogDir, err)
	}

	w := &Writer{
		path: filepath.Join(dir,
			fmt.Sprintf("interaction_log_%s.jsonl", time.Now().Format(sessionStampLayout))),
		flushThreshold: defaultFlushThreshold,
		flushInterval:  defaultFlushInterval,
		maxBuffer:      defaultMaxBuffer,
		log:            logger.Get(),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.flushLoop()

	return w, nil
}

// Path returns the session file path.
func (w *Writer) Path() string {
	return w.path
}

// Append buffers an event, flushing when the threshold is reached. A
// flush failure is absorbed: the batch stays buffered and the error is
// returned for observability only.
func (w *Writer) Append(_ context.Context, e model.RawEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, e)
	w.capLocked()
	metrics.UpdateEventlogBufferSize(len(w.buf))

	if len(w.buf) >= w.flushThreshold {
		return w.flushLocked()
	}
	return nil
}

// Flush writes all buffered events to the session file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// Dropped returns how many buffered events were discarded by the
// buffer cap.
func (w *Writer) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Buffered returns the number of events awaiting a flush.
func (w *Writer) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Close stops the background loop and performs a final flush.
func (w *Writer) Close() error {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
	return w.Flush()
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.Flush(); err != nil {
				w.log.Error(context.Background(), "periodic flush failed",
					logger.String("path", w.path),
					logger.Error(err))
			}
		}
	}
}

// flushLocked appends the buffered events to the session file. The
// buffer is cleared only after the whole batch is written and synced.
// Caller holds w.mu.
func (w *Writer) flushLocked() error {
	if len(w.buf) == 0 {
		return nil
	}
	start := time.Now()

	err := w.writeBatch(w.buf)
	if err != nil {
		metrics.RecordEventlogFlushError()
		metrics.UpdateEventlogRetained(len(w.buf))
		w.log.Error(context.Background(), "flush failed, retaining events in memory",
			logger.String("path", w.path),
			logger.Int("buffered", len(w.buf)),
			logger.Error(err))
		return err
	}

	w.buf = w.buf[:0]
	metrics.RecordEventlogFlush()
	metrics.RecordEventlogFlushLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateEventlogBufferSize(0)
	metrics.UpdateEventlogRetained(0)
	return nil
}

func (w *Writer) writeBatch(events []model.RawEvent) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermission)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenLogFile, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteEvent, err)
		}
	}
	return f.Sync()
}

// capLocked enforces the in-memory cap by dropping the oldest events.
// Caller holds w.mu.
func (w *Writer) capLocked() {
	if w.maxBuffer <= 0 || len(w.buf) <= w.maxBuffer {
		return
	}
	drop := len(w.buf) - w.maxBuffer
	w.buf = append(w.buf[:0], w.buf[drop:]...)
	w.dropped += int64(drop)
	metrics.RecordEventlogDropped(drop)
	w.log.Warn(context.Background(), "event buffer cap reached, dropping oldest events",
		logger.Int("dropped", drop),
		logger.Int("cap", w.maxBuffer))
}
