package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrEmptyDatabase    = errors.New("surface-form database is empty")
	ErrUpstream         = errors.New("upstream request failed")
)
