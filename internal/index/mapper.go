package index

import (
	"context"
	"time"

	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

// Mapper turns a file into its chunk records.
type Mapper struct {
	corpus  Corpus
	chunker Chunker
	now     func() time.Time
}

// NewMapper creates a Mapper. now defaults to time.Now.
func NewMapper(corpus Corpus, chunker Chunker, now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{corpus: corpus, chunker: chunker, now: now}
}

// MapFile reads and chunks file. Read and chunk errors are returned as is.
func (m *Mapper) MapFile(ctx context.Context, file scanner.FileInfo) ([]store.ChunkRecord, error) {
	content, err := m.corpus.ReadFile(file.Path)
	if err != nil {
		return nil, err
	}
	return m.MapContent(ctx, file.Path, content, file.ModTime)
}

// MapContent chunks content that belongs to path. Records are in chunk
// order with SubNoteIndex equal to their position; all share one
// TimeAdded. Content with no chunks yields an empty slice.
func (m *Mapper) MapContent(ctx context.Context, path, content string, modified time.Time) ([]store.ChunkRecord, error) {
	chunks, err := m.chunker.Chunk(ctx, content)
	if err != nil {
		return nil, err
	}

	added := m.now()
	records := make([]store.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = store.ChunkRecord{
			NotePath:     path,
			Content:      c,
			SubNoteIndex: i,
			TimeAdded:    added,
			FileModified: modified,
		}
	}
	return records, nil
}
