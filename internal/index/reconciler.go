package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

// DefaultProgressBuffer is the Run event buffer when none is configured.
const DefaultProgressBuffer = 64

// Dependencies contains the injected collaborators of a Reconciler.
type Dependencies struct {
	// Corpus lists and reads notes (required).
	Corpus Corpus

	// Chunker splits notes (required).
	Chunker Chunker

	// Store holds the records (required).
	Store Store

	// Workers bounds concurrent file mapping (0 = GOMAXPROCS).
	Workers int

	// ProgressBuffer sizes the Run event channel (0 = DefaultProgressBuffer).
	ProgressBuffer int

	// Now is the clock for TimeAdded (nil = time.Now).
	Now func() time.Time
}

// Reconciler brings a Store in line with a Corpus. It does no locking:
// callers must ensure a single writer per store.
type Reconciler struct {
	corpus   Corpus
	store    Store
	mapper   *Mapper
	snapshot *SnapshotReader
	differ   *Differ
	buffer   int
	now      func() time.Time
}

// NewReconciler creates a Reconciler with injected dependencies.
func NewReconciler(deps Dependencies) (*Reconciler, error) {
	if deps.Corpus == nil {
		return nil, fmt.Errorf("corpus is required")
	}
	if deps.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	buffer := deps.ProgressBuffer
	if buffer <= 0 {
		buffer = DefaultProgressBuffer
	}

	mapper := NewMapper(deps.Corpus, deps.Chunker, now)
	return &Reconciler{
		corpus:   deps.Corpus,
		store:    deps.Store,
		mapper:   mapper,
		snapshot: NewSnapshotReader(deps.Store),
		differ:   NewDiffer(mapper, deps.Workers),
		buffer:   buffer,
		now:      now,
	}, nil
}

// Resync starts a full pass over root and returns immediately. Files whose
// chunk count differs from the store are deleted and re-inserted; see the
// package doc for what a count comparison misses.
func (r *Reconciler) Resync(ctx context.Context, root string) *Run {
	run := newRun(r.buffer)
	go r.resync(ctx, root, run)
	return run
}

func (r *Reconciler) resync(ctx context.Context, root string, run *Run) {
	start := time.Now()
	var res Result
	fail := func(stage Stage, fraction float64, err error) {
		res.Duration = time.Since(start)
		slog.Warn("resync_failed",
			slog.String("root", root),
			slog.String("stage", stage.String()),
			slog.String("error", err.Error()))
		run.finish(ProgressEvent{Stage: stage, Fraction: fraction}, res, err)
	}

	files, err := r.corpus.List(ctx, root)
	if err != nil {
		fail(StageScan, 0, err)
		return
	}
	res.Files = len(files)

	if err := ctx.Err(); err != nil {
		fail(StageSnapshot, 0, err)
		return
	}
	snapshot, err := r.snapshot.Snapshot(ctx)
	if err != nil {
		fail(StageSnapshot, 0, err)
		return
	}
	res.StoredRecords = len(snapshot)

	refreshes, err := r.differ.Diff(ctx, files, snapshot)
	if err != nil {
		fail(StageDiff, 0, err)
		return
	}

	if len(refreshes) > 0 {
		if err := ctx.Err(); err != nil {
			fail(StageDelete, 0, err)
			return
		}
		if err := r.store.DeleteByPaths(ctx, paths(refreshes)); err != nil {
			fail(StageDelete, 0, err)
			return
		}

		records := flatten(refreshes)
		var last float64
		onProgress := func(done, total int) {
			if total <= 0 {
				return
			}
			last = float64(done) / float64(total)
			run.emit(ProgressEvent{Stage: StageInsert, Fraction: last})
		}
		if err := r.store.Add(ctx, records, onProgress); err != nil {
			fail(StageInsert, last, err)
			return
		}
		res.Refreshed = len(refreshes)
		res.Inserted = len(records)
	}

	res.Duration = time.Since(start)
	slog.Info("resync_complete",
		slog.String("root", root),
		slog.Int("files", res.Files),
		slog.Int("stored_records", res.StoredRecords),
		slog.Int("refreshed", res.Refreshed),
		slog.Int("inserted", res.Inserted),
		slog.Int64("duration_ms", res.Duration.Milliseconds()))
	run.finish(ProgressEvent{Stage: StageComplete, Fraction: 1}, res, nil)
}

// UpdateFile replaces the records of path with chunks of content. The
// file modification time is taken to be now, the same instant as
// TimeAdded.
func (r *Reconciler) UpdateFile(ctx context.Context, path, content string) error {
	if err := r.store.DeleteByPaths(ctx, []string{path}); err != nil {
		return err
	}

	now := r.now()
	mapper := NewMapper(r.corpus, r.mapper.chunker, func() time.Time { return now })
	records, err := mapper.MapContent(ctx, path, content, now)
	if err != nil {
		return err
	}
	if err := r.store.Add(ctx, records, nil); err != nil {
		return err
	}

	slog.Debug("note_updated", slog.String("path", path), slog.Int("chunks", len(records)))
	return nil
}

// AddTree inserts the records of every file in tree without comparing
// against the store. Adding a tree that is already stored duplicates it.
func (r *Reconciler) AddTree(ctx context.Context, tree *scanner.FileTree) error {
	files := tree.Flatten()
	mapped, err := r.differ.mapFiles(ctx, files)
	if err != nil {
		return err
	}
	var records []store.ChunkRecord
	for _, m := range mapped {
		records = append(records, m...)
	}
	if err := r.store.Add(ctx, records, nil); err != nil {
		return err
	}
	slog.Info("tree_added", slog.Int("files", len(files)), slog.Int("chunks", len(records)))
	return nil
}

// RemoveTree deletes the records of every file in tree.
func (r *Reconciler) RemoveTree(ctx context.Context, tree *scanner.FileTree) error {
	files := tree.Flatten()
	if len(files) == 0 {
		return nil
	}
	ps := make([]string, len(files))
	for i, f := range files {
		ps[i] = f.Path
	}
	if err := r.store.DeleteByPaths(ctx, ps); err != nil {
		return err
	}
	slog.Info("tree_removed", slog.Int("files", len(files)))
	return nil
}

// RemovePath deletes the records of a single note.
func (r *Reconciler) RemovePath(ctx context.Context, path string) error {
	if err := r.store.DeleteByPaths(ctx, []string{path}); err != nil {
		return err
	}
	slog.Debug("note_removed", slog.String("path", path))
	return nil
}
