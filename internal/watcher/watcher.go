package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was written.
	OpModify
	// OpDelete indicates a file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to one file.
type FileEvent struct {
	// Path is the absolute path of the file.
	Path string

	// RelPath is Path relative to the watched root.
	RelPath string

	// Operation is the coalesced operation.
	Operation Operation

	// Timestamp is when the last contributing event was seen.
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is the quiet period before coalesced events are
	// emitted. Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the number of batches buffered for the consumer.
	// Default: 100
	EventBufferSize int

	// Accept reports whether a root-relative file path is of interest.
	// Nil accepts every file.
	Accept func(relPath string) bool

	// SkipDir reports whether a root-relative directory is not watched.
	// Nil skips hidden directories only.
	SkipDir func(relPath string) bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		EventBufferSize: 100,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
