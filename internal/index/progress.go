package index

import (
	"sync"
)

// Stage identifies the step of a Resync that produced an event.
type Stage int

const (
	StageScan Stage = iota
	StageSnapshot
	StageDiff
	StageDelete
	StageInsert
	StageComplete
)

// String returns the stage name used in logs and the UI.
func (s Stage) String() string {
	switch s {
	case StageScan:
		return "scan"
	case StageSnapshot:
		return "snapshot"
	case StageDiff:
		return "diff"
	case StageDelete:
		return "delete"
	case StageInsert:
		return "insert"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProgressEvent reports Resync progress. Fraction is in [0, 1]. The last
// event of every run has Done set; Err is non-nil if the run failed, in
// which case Stage names the step that failed.
type ProgressEvent struct {
	Stage    Stage
	Fraction float64
	Done     bool
	Err      error
}

// Run is an in-flight Resync.
type Run struct {
	events chan ProgressEvent
	done   chan struct{}

	once   sync.Once
	result Result
	err    error
}

func newRun(buffer int) *Run {
	if buffer < 1 {
		buffer = 1
	}
	return &Run{
		events: make(chan ProgressEvent, buffer),
		done:   make(chan struct{}),
	}
}

// Events returns the progress stream. Intermediate events are dropped when
// the buffer is full; the final event is always delivered, after which the
// channel is closed. Draining the channel is optional.
func (r *Run) Events() <-chan ProgressEvent {
	return r.events
}

// Wait blocks until the run finishes.
func (r *Run) Wait() (Result, error) {
	<-r.done
	return r.result, r.err
}

// Done is closed when the run finishes.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// emit sends ev without blocking.
func (r *Run) emit(ev ProgressEvent) {
	select {
	case r.events <- ev:
	default:
	}
}

// finish delivers the final event, closes the stream and releases Wait.
// Only the run's goroutine sends, so after dropping at most one buffered
// event the send cannot block.
func (r *Run) finish(ev ProgressEvent, res Result, err error) {
	r.once.Do(func() {
		ev.Done = true
		ev.Err = err
		select {
		case r.events <- ev:
		default:
			select {
			case <-r.events:
			default:
			}
			r.events <- ev
		}
		close(r.events)

		r.result = res
		r.err = err
		close(r.done)
	})
}
