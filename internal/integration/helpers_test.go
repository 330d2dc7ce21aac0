// Package integration exercises the scanner, reconciler, store and watcher
// together against real directories and SQLite files.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/notesync/internal/chunk"
	"github.com/Aman-CERP/notesync/internal/embed"
	"github.com/Aman-CERP/notesync/internal/index"
	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

const testDims = 64

// stack is one opened notes directory.
type stack struct {
	root       string
	table      *store.Table
	scanner    *scanner.Scanner
	reconciler *index.Reconciler
}

// openStack opens the store at dbPath ("" for memory) for the notes in root.
func openStack(t *testing.T, root, dbPath string) *stack {
	t.Helper()

	backend, err := store.OpenSQLite(dbPath, store.SQLiteConfig{Dimensions: testDims})
	require.NoError(t, err)
	table := store.NewTable(backend, embed.NewHashEmbedder(testDims), 10)

	sc := scanner.New(scanner.Options{})
	r, err := index.NewReconciler(index.Dependencies{
		Corpus:  sc,
		Chunker: chunk.NewMarkdownChunker(chunk.Options{}),
		Store:   table,
		Workers: 4,
	})
	require.NoError(t, err)

	return &stack{root: root, table: table, scanner: sc, reconciler: r}
}

func (s *stack) resync(t *testing.T) index.Result {
	t.Helper()
	run := s.reconciler.Resync(context.Background(), s.root)
	for range run.Events() {
	}
	res, err := run.Wait()
	require.NoError(t, err)
	return res
}

func (s *stack) records(t *testing.T) []store.ChunkRecord {
	t.Helper()
	recs, err := index.NewSnapshotReader(s.table).Snapshot(context.Background())
	require.NoError(t, err)
	return recs
}

func (s *stack) notes(t *testing.T) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	for _, rec := range s.records(t) {
		rel, err := filepath.Rel(s.root, rec.NotePath)
		require.NoError(t, err)
		counts[filepath.ToSlash(rel)]++
	}
	return counts
}

func writeNote(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// createNotes lays out a small notes directory with some unusual paths.
func createNotes(t *testing.T, root string) {
	t.Helper()
	writeNote(t, root, "inbox.md", "# Inbox\n\ncall the plumber")
	writeNote(t, root, "projects/garden.md", "# Garden\n\ntomatoes\n\n# Tools\n\nspade and rake")
	writeNote(t, root, "journal/it's 50% done.md", "# Progress\n\nhalf way there")
	writeNote(t, root, "empty.md", "")
	writeNote(t, root, ".obsidian/workspace.md", "# hidden")
	writeNote(t, root, "image.png", "not a note")
}
