package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/notesync/internal/chunk"
	"github.com/Aman-CERP/notesync/internal/config"
	"github.com/Aman-CERP/notesync/internal/embed"
	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/index"
	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
	"github.com/Aman-CERP/notesync/internal/ui"
)

// environment is everything a command needs to work on one notes directory.
type environment struct {
	root       string
	cfg        *config.Config
	embedder   embed.Embedder
	table      *store.Table
	scanner    *scanner.Scanner
	reconciler *index.Reconciler
	lock       *store.Lock
}

// openEnvironment loads the configuration for dir and opens its store.
// Writing commands take the store lock first.
func openEnvironment(dir string, write bool) (*environment, error) {
	root, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	env := &environment{root: root, cfg: cfg}

	if write {
		lock := store.NewLock(cfg.DataDir(root))
		if err := lock.TryLock(); err != nil {
			return nil, err
		}
		env.lock = lock
	}

	dbPath := cfg.DBPath(root)
	backend, err := store.OpenSQLite(dbPath, store.SQLiteConfig{
		Dimensions: cfg.Embeddings.Dimensions,
		CacheMB:    cfg.Store.CacheMB,
	})
	if err != nil {
		_ = env.unlock()
		return nil, nserrors.New(nserrors.ErrCodeStoreOpen, "failed to open the note store", err).
			WithDetail("path", dbPath)
	}

	env.embedder = embed.NewCachedEmbedder(embed.NewHashEmbedder(cfg.Embeddings.Dimensions), cfg.Embeddings.CacheSize)
	env.table = store.NewTable(backend, env.embedder, cfg.Reconcile.InsertBatch)
	env.scanner = scanner.New(scanner.Options{
		Extensions: cfg.Paths.Extensions,
		Exclude:    cfg.Paths.Exclude,
	})

	env.reconciler, err = index.NewReconciler(index.Dependencies{
		Corpus:         env.scanner,
		Chunker:        chunk.NewMarkdownChunker(chunk.Options{MaxTokens: cfg.Chunking.MaxTokens}),
		Store:          env.table,
		Workers:        cfg.Reconcile.Workers,
		ProgressBuffer: cfg.Reconcile.ProgressBuffer,
	})
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	slog.Debug("environment_opened",
		slog.String("root", root),
		slog.String("db", dbPath),
		slog.Bool("write", write))
	return env, nil
}

// Close closes the store and releases the lock.
func (e *environment) Close() error {
	var err error
	if e.table != nil {
		err = e.table.Close()
	}
	return errors.Join(err, e.unlock())
}

func (e *environment) unlock() error {
	if e.lock == nil {
		return nil
	}
	return e.lock.Unlock()
}

// resolveDir returns the absolute path of an existing directory.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nserrors.New(nserrors.ErrCodeFileNotFound, "directory not found", err).
			WithDetail("path", abs)
	}
	if !info.IsDir() {
		return "", nserrors.ValidationError("not a directory", nil).WithDetail("path", abs)
	}
	return abs, nil
}

// renderRun feeds run's events to renderer and returns the run's result.
func renderRun(ctx context.Context, run *index.Run, renderer ui.Renderer) (index.Result, error) {
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	var final index.ProgressEvent
	for ev := range run.Events() {
		if ev.Done {
			final = ev
			continue
		}
		renderer.Progress(ui.Update{Stage: ev.Stage.String(), Fraction: ev.Fraction})
	}

	res, err := run.Wait()
	if err != nil {
		renderer.Fail(final.Stage.String(), err)
		return res, err
	}
	renderer.Complete(ui.Summary{
		Files:     res.Files,
		Stored:    res.StoredRecords,
		Refreshed: res.Refreshed,
		Inserted:  res.Inserted,
		Duration:  res.Duration,
	})
	return res, nil
}

// storePath returns the database path configured for root.
func storePath(root string) string {
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}
	return cfg.DBPath(root)
}
