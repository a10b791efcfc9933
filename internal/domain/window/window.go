// Package window keeps the recent raw events available for live
// analysis. The buffer is bounded by both entry count and age.
package window

import (
	"sync"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

const (
	defaultMaxSize = 10_000
	defaultMaxAge  = 30 * time.Minute
)

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithMaxSize bounds the number of buffered events.
func WithMaxSize(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.maxSize = n
		}
	}
}

// WithMaxAge bounds how long events stay available.
func WithMaxAge(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.maxAge = d
		}
	}
}

// Buffer is a mutex-guarded, time-ordered buffer of recent events.
// Events are expected to arrive in roughly increasing timestamp order;
// ordering within a worker batch is preserved as given.
type Buffer struct {
	mu      sync.RWMutex
	events  []model.RawEvent
	maxSize int
	maxAge  time.Duration
	now     func() time.Time
}

// NewBuffer creates a Buffer with the given bounds.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		maxSize: defaultMaxSize,
		maxAge:  defaultMaxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends an event, dropping the oldest entries when either bound
// is exceeded.
func (b *Buffer) Add(e model.RawEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, e)
	b.pruneLocked()
}

// Recent returns a copy of the events newer than now minus d, oldest
// first.
func (b *Buffer) Recent(d time.Duration) []model.RawEvent {
	cutoff := b.now().Add(-d)

	b.mu.RLock()
	defer b.mu.RUnlock()

	i := 0
	for i < len(b.events) && !b.events[i].Timestamp.After(cutoff) {
		i++
	}
	out := make([]model.RawEvent, len(b.events)-i)
	copy(out, b.events[i:])
	return out
}

// Len returns the current number of buffered events.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Prune drops events older than the age bound. Add prunes as a side
// effect; this is for callers that want to reclaim memory while idle.
func (b *Buffer) Prune() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
}

func (b *Buffer) pruneLocked() {
	cutoff := b.now().Add(-b.maxAge)
	i := 0
	for i < len(b.events) && b.events[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = append(b.events[:0], b.events[i:]...)
	}
	if len(b.events) > b.maxSize {
		drop := len(b.events) - b.maxSize
		b.events = append(b.events[:0], b.events[drop:]...)
	}
}
