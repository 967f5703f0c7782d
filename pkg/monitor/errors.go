package monitor

import "errors"

var (
	// ErrMonitorClosed is returned when operations are attempted on a closed monitor.
	ErrMonitorClosed = errors.New("monitor is closed")

	// ErrMonitorRunning is returned when trying to start an already running monitor.
	ErrMonitorRunning = errors.New("monitor is already running")

	// ErrMonitorNotRunning is returned when trying to stop a non-running monitor.
	ErrMonitorNotRunning = errors.New("monitor is not running")

	// ErrMonitorStopped is returned when starting a monitor that was stopped.
	ErrMonitorStopped = errors.New("monitor was stopped")

	// ErrInvalidConfig is returned when a dependency is missing.
	ErrInvalidConfig = errors.New("invalid monitor configuration")
)
