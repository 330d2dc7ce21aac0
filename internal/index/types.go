package index

import (
	"context"
	"time"

	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

// Corpus lists and reads note files. Implemented by scanner.Scanner.
type Corpus interface {
	List(ctx context.Context, root string) ([]scanner.FileInfo, error)
	Tree(ctx context.Context, root string) (*scanner.FileTree, error)
	ReadFile(path string) (string, error)
}

// Chunker splits note content into ordered chunks. Implemented by
// chunk.MarkdownChunker.
type Chunker interface {
	Chunk(ctx context.Context, content string) ([]string, error)
}

// Store holds chunk records. Implemented by store.Table.
type Store interface {
	CountRows(ctx context.Context) (int, error)
	Query(ctx context.Context, f store.Filter, limit int) ([]store.Row, error)
	DeleteByPaths(ctx context.Context, paths []string) error
	Add(ctx context.Context, records []store.ChunkRecord, onProgress func(done, total int)) error
}

// Refresh is a file whose stored records must be replaced, with the
// records that replace them.
type Refresh struct {
	File   scanner.FileInfo
	Chunks []store.ChunkRecord
}

// Result summarizes a completed Resync.
type Result struct {
	// Files is the number of files the corpus listed.
	Files int

	// StoredRecords is the number of valid records in the snapshot.
	StoredRecords int

	// Refreshed is the number of files deleted and re-inserted.
	Refreshed int

	// Inserted is the number of records inserted.
	Inserted int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Changed reports whether the run wrote to the store.
func (r Result) Changed() bool { return r.Refreshed > 0 }

// paths returns the note paths of refreshes in order.
func paths(refreshes []Refresh) []string {
	out := make([]string, len(refreshes))
	for i, r := range refreshes {
		out[i] = r.File.Path
	}
	return out
}

// flatten concatenates the records of refreshes in order.
func flatten(refreshes []Refresh) []store.ChunkRecord {
	n := 0
	for _, r := range refreshes {
		n += len(r.Chunks)
	}
	out := make([]store.ChunkRecord, 0, n)
	for _, r := range refreshes {
		out = append(out, r.Chunks...)
	}
	return out
}
