// Package watcher reports changes to project data files.
//
// It uses fsnotify to watch the data directory and coalesces bursts of
// writes to the same file into a single debounced event, so a file being
// rewritten triggers one reload instead of several.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 250 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"./data"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to a data file.
type Event struct {
	// Path is the file that changed.
	Path string

	// Op is the last operation seen within the debounce window.
	Op Op

	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching the given directories and returns once the
	// watches are registered. Events flow until ctx is cancelled or Stop
	// is called.
	//
	// Missing paths are skipped; ErrInvalidPath is returned when none remain.
	Start(ctx context.Context, paths []string) error

	// Stop stops event processing. The watcher cannot be restarted.
	Stop() error

	// Events returns the channel of debounced events.
	// The channel is closed by Close.
	Events() <-chan Event

	// Errors returns non-fatal watcher errors. After the circuit breaker
	// opens it carries ErrCircuitBreakerOpen and processing stops.
	// The channel is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet period before an event is emitted.
	// Events for the same file within this interval are coalesced.
	// Default: 100ms.
	DebounceInterval time.Duration

	// Extensions lists the file suffixes that produce events.
	// Default: [".json"].
	Extensions []string

	// Recursive also watches subdirectories present at start.
	Recursive bool

	// CircuitBreakerThreshold is the number of consecutive fsnotify
	// errors after which the watcher gives up.
	// Default: 5.
	CircuitBreakerThreshold int
}
