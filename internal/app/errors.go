package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors.
var (
	ErrOpenStore    = errors.New("open store failed")
	ErrOpenEventLog = errors.New("open event log failed")
)

// WrapKind tags an operation with a sentinel kind and the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
