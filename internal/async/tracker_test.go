package async

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/notesync/internal/chunk"
	"github.com/Aman-CERP/notesync/internal/embed"
	"github.com/Aman-CERP/notesync/internal/index"
	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

func newReconciler(t *testing.T) *index.Reconciler {
	t.Helper()
	backend, err := store.OpenSQLite("", store.SQLiteConfig{Dimensions: 32})
	require.NoError(t, err)
	table := store.NewTable(backend, embed.NewHashEmbedder(32), 1)
	t.Cleanup(func() { _ = table.Close() })

	r, err := index.NewReconciler(index.Dependencies{
		Corpus:  scanner.New(scanner.Options{}),
		Chunker: chunk.NewMarkdownChunker(chunk.Options{}),
		Store:   table,
	})
	require.NoError(t, err)
	return r
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not finish")
	}
}

func TestTracker_Idle(t *testing.T) {
	tr := NewTracker()

	snap := tr.Snapshot()

	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.Stage)
	assert.False(t, tr.IsResyncing())
}

func TestTracker_FollowSuccess(t *testing.T) {
	// Given: a notes directory with two notes
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("beta"), 0o644))
	tr := NewTracker()

	// When: the tracker follows a resync
	waitDone(t, tr.Follow(newReconciler(t).Resync(context.Background(), root)))

	// Then: it reports the completed pass
	snap := tr.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, "complete", snap.Stage)
	assert.InDelta(t, 100.0, snap.ProgressPct, 0.001)
	assert.Equal(t, 2, snap.Refreshed)
	assert.Equal(t, 2, snap.Inserted)
	assert.Empty(t, snap.ErrorMessage)
	assert.False(t, tr.IsResyncing())
}

func TestTracker_FollowFailure(t *testing.T) {
	tr := NewTracker()
	missing := filepath.Join(t.TempDir(), "missing")

	waitDone(t, tr.Follow(newReconciler(t).Resync(context.Background(), missing)))

	snap := tr.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "scan", snap.Stage)
	assert.NotEmpty(t, snap.ErrorMessage)
}

func TestTracker_ElapsedFrozenAfterFinish(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker()
	clock := time.Unix(1_700_000_000, 0)
	tr.now = func() time.Time { return clock }

	done := tr.Follow(newReconciler(t).Resync(context.Background(), root))
	waitDone(t, done)
	clock = clock.Add(time.Hour)

	assert.Equal(t, 0, tr.Snapshot().ElapsedSeconds)
}

func TestTracker_NewerRunReplacesOlder(t *testing.T) {
	root := t.TempDir()
	r := newReconciler(t)
	tr := NewTracker()

	first := tr.Follow(r.Resync(context.Background(), filepath.Join(root, "missing")))
	second := tr.Follow(r.Resync(context.Background(), root))
	waitDone(t, first)
	waitDone(t, second)

	assert.Equal(t, StatusReady, tr.Snapshot().Status)
}
