package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
)

// LockFileName is the advisory lock taken by writing commands.
const LockFileName = "notesync.lock"

// Lock is a cross-process advisory lock on a store's data directory. It
// enforces the single-writer assumption between notesync processes.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewLock creates an unheld lock for dataDir.
func NewLock(dataDir string) *Lock {
	path := filepath.Join(dataDir, LockFileName)
	return &Lock{path: path, flock: flock.New(path)}
}

// TryLock takes the lock without blocking. If another process holds it,
// the error has code ErrCodeStoreLocked.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nserrors.New(nserrors.ErrCodeStoreLocked, "the note store is in use by another notesync process", nil).
			WithDetail("lock", l.path).
			WithSuggestion("wait for the other process to finish, or stop `notesync watch`/`notesync serve`")
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }
