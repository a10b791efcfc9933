package eventlog

import "errors"

// Sentinel errors for event log failures.
var (
	ErrCreateLogDir = errors.New("failed to create event log directory")
	ErrOpenLogFile  = errors.New("failed to open event log file")
	ErrWriteEvent   = errors.New("failed to write event")
)
