// Package store holds the chunk record model and the record store behind it.
//
// A Backend stores rows keyed by a store-safe note path. Table is the only
// type that talks to a Backend: it encodes note paths with EncodePath right
// before every write or filter, and rows coming back are decoded by
// ParseRecord as they are ingested. Nothing else in the module encodes or
// decodes paths.
package store

import (
	"context"
	"time"
)

// Field names shared by rows, filters and the SQL schema.
const (
	FieldNotePath     = "notepath"
	FieldContent      = "content"
	FieldSubNoteIndex = "subnoteindex"
	FieldTimeAdded    = "timeadded"
	FieldFileModified = "filemodified"
	FieldVector       = "vector"
	FieldDistance     = "distance"
)

// ChunkRecord is one stored chunk of a note.
type ChunkRecord struct {
	// NotePath is the note's file-system path, unencoded.
	NotePath string
	// Content is the chunk text. Empty marks a note with no chunk-worthy
	// content.
	Content string
	// SubNoteIndex is the chunk's zero-based position within the note.
	SubNoteIndex int
	TimeAdded    time.Time
	FileModified time.Time
	// Vector is filled by Table on insert and is opaque to reconciliation.
	Vector []float32
}

// QueryResult is a record returned by similarity search.
type QueryResult struct {
	ChunkRecord
	// Distance is the cosine distance to the query; lower is closer.
	Distance float32
}

// Row is a record as a Backend sees it: field name to value.
type Row map[string]any

// Backend is the storage engine under a Table.
type Backend interface {
	// CountRows returns the total number of stored rows.
	CountRows(ctx context.Context) (int, error)

	// Query returns up to limit rows matching f.
	Query(ctx context.Context, f Filter, limit int) ([]Row, error)

	// Delete removes every row matching f.
	Delete(ctx context.Context, f Filter) error

	// Insert stores rows in one transaction.
	Insert(ctx context.Context, rows []Row) error

	// Search returns up to limit rows nearest to vector, each carrying a
	// FieldDistance value.
	Search(ctx context.Context, vector []float32, limit int) ([]Row, error)

	Close() error
}

// Stats summarizes the store for status output.
type Stats struct {
	Rows  int
	Notes int
}
