package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory tree with fsnotify and emits debounced
// batches of file events.
type Watcher struct {
	fsWatcher      *fsnotify.Watcher
	debouncer      *Debouncer
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// New creates a Watcher. It fails if the platform watcher cannot be
// created.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}, nil
}

// Start watches path recursively until ctx is cancelled or Stop is called.
// It blocks; run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", absPath)
	}

	w.mu.Lock()
	w.rootPath = absPath
	w.mu.Unlock()

	if err := w.addRecursive(absPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	go w.forwardDebouncedEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleEvent converts, filters and debounces one fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.RootPath(), event.Name)
	if err != nil || relPath == "." || strings.HasPrefix(relPath, "..") {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.skipDir(relPath) {
			// Notes may be written into the new directory before it is
			// watched; pick them up as creates.
			if err := w.addRecursive(event.Name); err != nil {
				w.emitError(err)
			}
			w.addExisting(event.Name)
		}
		return
	}

	if w.skipPath(relPath) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      event.Name,
		RelPath:   relPath,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// addExisting reports files already present under a new directory.
func (w *Watcher) addExisting(dir string) {
	root := w.RootPath()
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil || w.skipPath(relPath) {
			return nil
		}
		w.debouncer.Add(FileEvent{
			Path:      path,
			RelPath:   relPath,
			Operation: OpCreate,
			Timestamp: time.Now(),
		})
		return nil
	})
}

// skipPath reports whether a file event should be dropped.
func (w *Watcher) skipPath(relPath string) bool {
	dir := filepath.Dir(relPath)
	if dir != "." {
		parts := strings.Split(dir, string(filepath.Separator))
		for i := range parts {
			if w.skipDir(filepath.Join(parts[:i+1]...)) {
				return true
			}
		}
	}
	if w.opts.Accept != nil {
		return !w.opts.Accept(relPath)
	}
	return false
}

func (w *Watcher) skipDir(relPath string) bool {
	if w.opts.SkipDir != nil {
		return w.opts.SkipDir(relPath)
	}
	return strings.HasPrefix(filepath.Base(relPath), ".")
}

// forwardDebouncedEvents forwards debounced batches to the output channel.
func (w *Watcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) > 0 {
				w.emitEvents(events)
			}
		}
	}
}

// addRecursive adds every non-skipped directory under dir to fsnotify.
func (w *Watcher) addRecursive(dir string) error {
	root := w.RootPath()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		if relPath != "." && w.skipDir(relPath) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// emitEvents sends a batch without blocking.
func (w *Watcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count))
	}
}

// emitError sends a non-fatal error without blocking.
func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops watching and closes both channels. Safe to call multiple
// times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	err := w.fsWatcher.Close()
	close(w.events)
	close(w.errors)
	return err
}

// Events returns the channel of debounced batches.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns the number of batches dropped on overflow.
func (w *Watcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// RootPath returns the watched root.
func (w *Watcher) RootPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rootPath
}
