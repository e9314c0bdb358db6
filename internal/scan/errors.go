package scan

import "errors"

// Sentinel errors mapped to HTTP statuses by the API layer.
var (
	// ErrInvalidInput marks a bad or missing URL.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks an unknown scan id, or one with no report on disk.
	ErrNotFound = errors.New("scan not found")
	// ErrNotReady marks a report requested before the job reached a
	// terminal state.
	ErrNotReady = errors.New("report not ready")
)
