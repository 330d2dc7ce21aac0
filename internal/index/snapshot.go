package index

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/notesync/internal/store"
)

// SnapshotReader reads every valid record in a Store.
type SnapshotReader struct {
	store Store
}

// NewSnapshotReader creates a SnapshotReader over s.
func NewSnapshotReader(s Store) *SnapshotReader {
	return &SnapshotReader{store: s}
}

// Snapshot returns records with non-empty content followed by records
// with empty content. Ordering within each partition is unspecified. Rows
// that fail to parse are dropped.
func (r *SnapshotReader) Snapshot(ctx context.Context) ([]store.ChunkRecord, error) {
	total, err := r.store.CountRows(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []store.ChunkRecord{}, nil
	}

	records := make([]store.ChunkRecord, 0, total)
	for _, f := range []store.Filter{store.ContentNonEmpty(), store.ContentEmpty()} {
		rows, err := r.store.Query(ctx, f, total)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec, err := store.ParseRecord(row)
			if err != nil {
				slog.Debug("snapshot_row_dropped",
					slog.String("filter", f.Expression()),
					slog.String("reason", err.Error()))
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}
