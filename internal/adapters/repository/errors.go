package repository

import "errors"

// Sentinel errors for store failures.
var (
	ErrEmptyPath   = errors.New("store path must not be empty")
	ErrOpenStore   = errors.New("failed to open store")
	ErrApplySchema = errors.New("failed to apply schema")
	ErrWriteStore  = errors.New("failed to write to store")
	ErrReadStore   = errors.New("failed to read from store")
)
