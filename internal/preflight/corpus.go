package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Aman-CERP/notesync/internal/config"
	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

// CheckNotes counts the notes a resync of root would see.
func (c *Checker) CheckNotes(ctx context.Context, root string, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "notes",
		Required: true,
	}

	files, err := scanner.New(scanner.Options{
		Extensions: cfg.Paths.Extensions,
		Exclude:    cfg.Paths.Exclude,
	}).List(ctx, root)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to scan notes: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d notes", len(files))
	if len(files) == 0 {
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("no files with extensions %v", cfg.Paths.Extensions)
		return result
	}
	result.Status = StatusPass
	return result
}

// CheckStore opens the store at dbPath and parses every row. Rows that do
// not parse are skipped by every resync, so their notes look unstored.
func (c *Checker) CheckStore(ctx context.Context, dbPath string, dims int) CheckResult {
	result := CheckResult{
		Name:     "store",
		Required: true,
	}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusWarn
		result.Message = "no store yet"
		result.Details = "Run 'notesync resync' to create it"
		return result
	}

	backend, err := store.OpenSQLite(dbPath, store.SQLiteConfig{Dimensions: dims})
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to open store: %v", err)
		return result
	}
	defer func() { _ = backend.Close() }()

	total, err := backend.CountRows(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to count rows: %v", err)
		return result
	}
	rows, err := backend.Query(ctx, store.All(), total)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to read rows: %v", err)
		return result
	}

	var malformed int
	var firstReason string
	notes := make(map[string]struct{})
	for _, row := range rows {
		rec, err := store.ParseRecord(row)
		if err != nil {
			if malformed == 0 {
				firstReason = err.Error()
			}
			malformed++
			continue
		}
		notes[rec.NotePath] = struct{}{}
	}

	result.Message = fmt.Sprintf("%d records, %d notes", total, len(notes))
	if malformed > 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d of %d records are malformed", malformed, total)
		result.Details = firstReason
		return result
	}
	result.Status = StatusPass
	return result
}

// CheckLock reports whether another process is writing to the store.
func (c *Checker) CheckLock(dataDir string) CheckResult {
	result := CheckResult{
		Name:     "store_lock",
		Required: false,
	}

	if _, err := os.Stat(dataDir); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "free"
		return result
	}

	lock := store.NewLock(dataDir)
	if err := lock.TryLock(); err != nil {
		result.Status = StatusWarn
		if nserrors.GetCode(err) == nserrors.ErrCodeStoreLocked {
			result.Message = "held by another notesync process"
			result.Details = lock.Path()
		} else {
			result.Message = err.Error()
		}
		return result
	}
	_ = lock.Unlock()

	result.Status = StatusPass
	result.Message = "free"
	return result
}
