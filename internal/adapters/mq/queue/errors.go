package queue

import "errors"

// ErrQueueClosed is returned by callers that need an error value for a
// rejected enqueue on a closed queue.
var ErrQueueClosed = errors.New("queue is closed")
