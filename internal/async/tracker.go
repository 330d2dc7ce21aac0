// Package async tracks resync passes that run in the background.
package async

import (
	"sync"
	"time"

	"github.com/Aman-CERP/notesync/internal/index"
)

// Status is the state of the tracked resync.
type Status string

const (
	// StatusIdle means no resync has been followed yet.
	StatusIdle Status = "idle"
	// StatusResyncing means a resync is in flight.
	StatusResyncing Status = "resyncing"
	// StatusReady means the last resync finished.
	StatusReady Status = "ready"
	// StatusError means the last resync failed.
	StatusError Status = "error"
)

// Snapshot is an immutable copy of the tracker state.
type Snapshot struct {
	Status         Status  `json:"status"`
	Stage          string  `json:"stage,omitempty"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	Refreshed      int     `json:"refreshed"`
	Inserted       int     `json:"inserted"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Tracker follows one resync at a time and is safe for concurrent reads.
type Tracker struct {
	mu       sync.RWMutex
	status   Status
	stage    index.Stage
	fraction float64
	start    time.Time
	end      time.Time
	result   index.Result
	errMsg   string
	done     chan struct{}
	now      func() time.Time
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{status: StatusIdle, now: time.Now}
}

// Follow consumes run's events until it finishes. The returned channel is
// closed once the tracker holds the final state. Following a new run while
// one is in flight replaces it as the reported run.
func (t *Tracker) Follow(run *index.Run) <-chan struct{} {
	done := make(chan struct{})

	t.mu.Lock()
	t.status = StatusResyncing
	t.stage = index.StageScan
	t.fraction = 0
	t.start = t.now()
	t.end = time.Time{}
	t.result = index.Result{}
	t.errMsg = ""
	t.done = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range run.Events() {
			t.observe(done, ev)
		}
		res, err := run.Wait()
		t.finish(done, res, err)
	}()
	return done
}

func (t *Tracker) observe(owner chan struct{}, ev index.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != owner {
		return
	}
	t.stage = ev.Stage
	t.fraction = ev.Fraction
}

func (t *Tracker) finish(owner chan struct{}, res index.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != owner {
		return
	}
	t.end = t.now()
	t.result = res
	if err != nil {
		t.status = StatusError
		t.errMsg = err.Error()
		return
	}
	t.status = StatusReady
	t.stage = index.StageComplete
	t.fraction = 1
}

// IsResyncing reports whether a followed resync is still in flight.
func (t *Tracker) IsResyncing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status == StatusResyncing
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Status:       t.status,
		ProgressPct:  t.fraction * 100,
		Refreshed:    t.result.Refreshed,
		Inserted:     t.result.Inserted,
		ErrorMessage: t.errMsg,
	}
	if t.status == StatusIdle {
		return snap
	}
	snap.Stage = t.stage.String()
	end := t.end
	if end.IsZero() {
		end = t.now()
	}
	snap.ElapsedSeconds = int(end.Sub(t.start).Seconds())
	return snap
}
