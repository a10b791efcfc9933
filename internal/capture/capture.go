// Package capture defines how raw interaction events enter the
// pipeline. OS-level hooks live outside this process; sources here
// feed previously recorded activity back in.
package capture

import (
	"context"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Source produces raw events until the context is done or the source
// is exhausted.
type Source interface {
	// Events returns a channel of events. The channel closes when the
	// source ends; Err reports what stopped it.
	Events(ctx context.Context) <-chan model.RawEvent

	// Err returns the terminal error, if any, once the channel closed.
	Err() error
}
