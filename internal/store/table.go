package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/notesync/internal/embed"
)

// DefaultEmbedBatch is the number of chunks embedded per progress step.
const DefaultEmbedBatch = 100

// Table is the boundary between note paths and store keys. It encodes
// paths immediately before each Backend write or filter and attaches
// vectors on insert. Rows it returns are raw; ParseRecord decodes them.
type Table struct {
	backend  Backend
	embedder embed.Embedder
	batch    int
}

// NewTable wraps backend. embedder fills the vector of every inserted
// record; batch is the number of records embedded per progress step.
func NewTable(backend Backend, embedder embed.Embedder, batch int) *Table {
	if batch <= 0 {
		batch = DefaultEmbedBatch
	}
	return &Table{backend: backend, embedder: embedder, batch: batch}
}

// CountRows returns the number of stored rows.
func (t *Table) CountRows(ctx context.Context) (int, error) {
	return t.backend.CountRows(ctx)
}

// Query returns up to limit raw rows matching f.
func (t *Table) Query(ctx context.Context, f Filter, limit int) ([]Row, error) {
	return t.backend.Query(ctx, f, limit)
}

// DeleteByPaths removes every record of the given notes in one call.
func (t *Table) DeleteByPaths(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = EncodePath(p)
	}
	f := NotePathIn(keys...)
	slog.Debug("store_delete", slog.String("filter", f.Expression()), slog.Int("notes", len(keys)))
	return t.backend.Delete(ctx, f)
}

// Add embeds and inserts records in a single backend insert. onProgress,
// if non-nil, is called after each embedded batch with the number of
// records done so far and the total. The call reporting all records done
// comes only after the insert has committed.
func (t *Table) Add(ctx context.Context, records []ChunkRecord, onProgress func(done, total int)) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]Row, 0, len(records))
	for start := 0; start < len(records); start += t.batch {
		end := min(start+t.batch, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Content
		}
		vectors, err := t.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		for i, r := range batch {
			r.NotePath = EncodePath(r.NotePath)
			r.Vector = vectors[i]
			rows = append(rows, r.toRow())
		}
		if onProgress != nil && end < len(records) {
			onProgress(end, len(records))
		}
	}

	if err := t.backend.Insert(ctx, rows); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(len(records), len(records))
	}
	return nil
}

// Search embeds query and returns up to limit nearest records. Malformed
// rows are skipped.
func (t *Table) Search(ctx context.Context, query string, limit int) ([]QueryResult, error) {
	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := t.backend.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}

	results := make([]QueryResult, 0, len(rows))
	for _, row := range rows {
		res, err := ParseQueryResult(row)
		if err != nil {
			slog.Debug("search_row_dropped", slog.String("reason", err.Error()))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// Stats counts rows and distinct notes.
func (t *Table) Stats(ctx context.Context) (Stats, error) {
	n, err := t.backend.CountRows(ctx)
	if err != nil {
		return Stats{}, err
	}
	if n == 0 {
		return Stats{}, nil
	}
	rows, err := t.backend.Query(ctx, All(), n)
	if err != nil {
		return Stats{}, err
	}
	notes := make(map[string]struct{})
	for _, row := range rows {
		if key, ok := row[FieldNotePath].(string); ok {
			notes[key] = struct{}{}
		}
	}
	return Stats{Rows: n, Notes: len(notes)}, nil
}

// Close closes the backend and the embedder.
func (t *Table) Close() error {
	err := t.backend.Close()
	if cerr := t.embedder.Close(); err == nil {
		err = cerr
	}
	return err
}
