// Package watcher reports changes to delimited text files.
//
// It uses fsnotify on directories. A watched file is tracked through its
// parent directory so that writers which replace the file by rename are still
// seen. Events for the same path are debounced.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 100 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"/var/data/export.csv"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("File %s: %s\n", event.Path, event.Op)
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

// Event represents a file system event.
type Event struct {
	// Path is the absolute path to the file that triggered the event.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching paths, which may be files or directories.
	//
	// Start returns once the watches are registered; events are delivered
	// from a background goroutine until ctx is cancelled or Stop is called.
	Start(ctx context.Context, paths []string) error

	// Stop ends event processing. The watcher cannot be restarted.
	Stop() error

	// Events returns the channel of debounced events. It is closed by Close.
	Events() <-chan Event

	// Errors returns non-fatal watcher errors. It is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the time to wait before emitting an event.
	// Multiple events for the same file within this interval are coalesced.
	// Default: 100ms.
	DebounceInterval time.Duration

	// Extensions limits directory watches to files with these suffixes.
	// Explicitly watched files are always reported.
	// Default: .csv, .tsv, .psv, .txt.
	Extensions []string

	// Recursive also watches subdirectories of watched directories.
	Recursive bool

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the watcher reports ErrCircuitBreakerOpen.
	// Default: 5.
	CircuitBreakerThreshold int
}

// DefaultExtensions lists the suffixes watched when Config.Extensions is empty.
var DefaultExtensions = []string{".csv", ".tsv", ".psv", ".txt"}
