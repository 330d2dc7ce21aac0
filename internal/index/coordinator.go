package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Aman-CERP/notesync/internal/watcher"
)

// Coordinator applies watcher batches to the store one note at a time.
type Coordinator struct {
	reconciler *Reconciler
	corpus     Corpus
	mu         sync.Mutex
}

// NewCoordinator creates a Coordinator that reads changed notes from
// corpus and writes them through r.
func NewCoordinator(r *Reconciler, corpus Corpus) *Coordinator {
	return &Coordinator{reconciler: r, corpus: corpus}
}

// HandleEvents processes a batch. A failing event is logged and skipped
// so the rest of the batch still applies; the number of events applied
// is returned.
func (c *Coordinator) HandleEvents(ctx context.Context, events []watcher.FileEvent) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var applied int
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		if err := c.handleEvent(ctx, event); err != nil {
			slog.Warn("failed to process file event",
				slog.String("path", event.Path),
				slog.String("operation", event.Operation.String()),
				slog.String("error", err.Error()))
			continue
		}
		applied++
	}
	return applied
}

func (c *Coordinator) handleEvent(ctx context.Context, event watcher.FileEvent) error {
	slog.Debug("processing file event",
		slog.String("path", event.Path),
		slog.String("operation", event.Operation.String()))

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		content, err := c.corpus.ReadFile(event.Path)
		if errors.Is(err, fs.ErrNotExist) {
			// Gone again before the batch was applied.
			return c.reconciler.RemovePath(ctx, event.Path)
		}
		if err != nil {
			return err
		}
		return c.reconciler.UpdateFile(ctx, event.Path, content)
	case watcher.OpDelete:
		return c.reconciler.RemovePath(ctx, event.Path)
	default:
		return nil
	}
}
