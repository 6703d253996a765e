package profiler

import "emperror.dev/errors"

const (
	// ErrAlreadyRunning is returned by Start while a run is active.
	ErrAlreadyRunning = errors.Sentinel("profiler is already running")
	// ErrNotRunning is returned by Stop when no run is active.
	ErrNotRunning = errors.Sentinel("profiler is not running")
)
