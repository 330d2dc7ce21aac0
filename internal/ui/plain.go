package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// PlainRenderer writes one line per visible change (for CI and pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	lastPct int
	stage   string
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, lastPct: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// Progress implements Renderer. Repeated updates at the same whole
// percentage are suppressed.
func (r *PlainRenderer) Progress(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pct := int(u.Fraction * 100)
	if u.Stage == r.stage && pct == r.lastPct {
		return
	}
	r.stage, r.lastPct = u.Stage, pct
	_, _ = fmt.Fprintf(r.out, "[%s] %3d%%\n", strings.ToUpper(u.Stage), pct)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Refreshed == 0 {
		_, _ = fmt.Fprintf(r.out, "Up to date: %d notes, %d records (%s)\n",
			s.Files, s.Stored, s.Duration.Round(time.Millisecond))
		return
	}
	_, _ = fmt.Fprintf(r.out, "Complete: %d of %d notes refreshed, %d records inserted in %s\n",
		s.Refreshed, s.Files, s.Inserted, s.Duration.Round(time.Millisecond))
}

// Fail implements Renderer.
func (r *PlainRenderer) Fail(stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "ERROR: %s failed: %v\n", stage, err)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
