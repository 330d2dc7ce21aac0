package index

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

// Differ decides which files need their records replaced.
type Differ struct {
	mapper  *Mapper
	workers int
}

// NewDiffer creates a Differ that maps up to workers files at once
// (0 = GOMAXPROCS).
func NewDiffer(mapper *Mapper, workers int) *Differ {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Differ{mapper: mapper, workers: workers}
}

// Diff maps every file and returns, in input order, the files whose fresh
// chunk count differs from their stored record count. Files with no
// chunks, or whose first chunk is empty, are never returned. The first
// mapping error cancels the rest and is returned.
func (d *Differ) Diff(ctx context.Context, files []scanner.FileInfo, snapshot []store.ChunkRecord) ([]Refresh, error) {
	stored := make(map[string]int, len(files))
	for _, rec := range snapshot {
		stored[rec.NotePath]++
	}

	fresh, err := d.mapFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	var refreshes []Refresh
	for i, f := range files {
		records := fresh[i]
		if len(records) == 0 || records[0].Content == "" {
			continue
		}
		if len(records) != stored[f.Path] {
			refreshes = append(refreshes, Refresh{File: f, Chunks: records})
		}
	}
	return refreshes, nil
}

// mapFiles maps files concurrently. The result is indexed like files.
func (d *Differ) mapFiles(ctx context.Context, files []scanner.FileInfo) ([][]store.ChunkRecord, error) {
	fresh := make([][]store.ChunkRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := d.mapper.MapFile(gctx, f)
			if err != nil {
				return err
			}
			fresh[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fresh, nil
}
