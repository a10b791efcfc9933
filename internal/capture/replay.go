package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// ErrOpenReplay wraps failures opening the replay file.
var ErrOpenReplay = errors.New("failed to open replay file")

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// ReplayOption applies a configuration option to the ReplaySource.
type ReplayOption func(*ReplaySource)

// WithPacing makes the replay honor the recorded inter-event gaps,
// scaled by factor (1.0 = real time, 2.0 = double speed). Zero or
// negative disables pacing.
func WithPacing(factor float64) ReplayOption {
	return func(r *ReplaySource) {
		r.pacing = factor
	}
}

// ReplaySource reads a recorded JSONL session file and feeds its events
// back through the pipeline, optionally at the recorded rhythm.
type ReplaySource struct {
	path   string
	pacing float64

	mu  sync.Mutex
	err error
}

// NewReplaySource creates a replay source over the given session file.
func NewReplaySource(path string, opts ...ReplayOption) *ReplaySource {
	r := &ReplaySource{path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events streams the file's events. Malformed lines are skipped.
func (r *ReplaySource) Events(ctx context.Context) <-chan model.RawEvent {
	out := make(chan model.RawEvent)
	go func() {
		defer close(out)

		f, err := os.Open(r.path)
		if err != nil {
			r.setErr(fmt.Errorf("%w: %v", ErrOpenReplay, err))
			return
		}
		defer f.Close()

		var last time.Time
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			var e model.RawEvent
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				continue
			}

			if r.pacing > 0 && !last.IsZero() {
				gap := time.Duration(float64(e.Timestamp.Sub(last)) / r.pacing)
				if gap > 0 {
					select {
					case <-time.After(gap):
					case <-ctx.Done():
						r.setErr(ctx.Err())
						return
					}
				}
			}
			last = e.Timestamp

			select {
			case out <- e:
			case <-ctx.Done():
				r.setErr(ctx.Err())
				return
			}
		}
		if err := scanner.Err(); err != nil {
			r.setErr(err)
		}
	}()
	return out
}

// Err returns the terminal error, if any.
func (r *ReplaySource) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *ReplaySource) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

var _ Source = (*ReplaySource)(nil)
