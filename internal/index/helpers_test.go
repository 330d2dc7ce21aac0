package index

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/notesync/internal/chunk"
	"github.com/Aman-CERP/notesync/internal/embed"
	"github.com/Aman-CERP/notesync/internal/scanner"
	"github.com/Aman-CERP/notesync/internal/store"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func fixedClock() time.Time { return fixedNow }

// fakeCorpus serves in-memory notes keyed by absolute path.
type fakeCorpus struct {
	mu       sync.Mutex
	files    []scanner.FileInfo
	contents map[string]string
	readErr  map[string]error
	listErr  error
}

func newFakeCorpus() *fakeCorpus {
	return &fakeCorpus{contents: map[string]string{}, readErr: map[string]error{}}
}

func (c *fakeCorpus) put(path, content string) *fakeCorpus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contents[path]; !ok {
		c.files = append(c.files, scanner.FileInfo{Path: path, RelPath: path, ModTime: fixedNow.Add(-time.Hour)})
	}
	c.contents[path] = content
	return c
}

func (c *fakeCorpus) List(ctx context.Context, root string) ([]scanner.FileInfo, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]scanner.FileInfo(nil), c.files...), nil
}

func (c *fakeCorpus) Tree(ctx context.Context, root string) (*scanner.FileTree, error) {
	files, err := c.List(ctx, root)
	if err != nil {
		return nil, err
	}
	tree := &scanner.FileTree{Name: root, Path: root}
	for i := range files {
		f := files[i]
		tree.Children = append(tree.Children, &scanner.FileTree{Name: f.RelPath, Path: f.Path, File: &f})
	}
	return tree, nil
}

func (c *fakeCorpus) ReadFile(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readErr[path]; err != nil {
		return "", err
	}
	content, ok := c.contents[path]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return content, nil
}

// recordingStore wraps a real Table and logs write calls in order.
type recordingStore struct {
	*store.Table

	mu    sync.Mutex
	calls []string

	deleteErr error
	addErr    error
}

func (s *recordingStore) log(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordingStore) DeleteByPaths(ctx context.Context, paths []string) error {
	s.log("delete %v", paths)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Table.DeleteByPaths(ctx, paths)
}

func (s *recordingStore) Add(ctx context.Context, records []store.ChunkRecord, onProgress func(done, total int)) error {
	s.log("add %d", len(records))
	if s.addErr != nil {
		return s.addErr
	}
	return s.Table.Add(ctx, records, onProgress)
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func newRecordingStore(t *testing.T, batch int) *recordingStore {
	t.Helper()
	backend, err := store.OpenSQLite("", store.SQLiteConfig{Dimensions: 32})
	require.NoError(t, err)
	table := store.NewTable(backend, embed.NewHashEmbedder(32), batch)
	t.Cleanup(func() { _ = table.Close() })
	return &recordingStore{Table: table}
}

// storedRecords returns all valid records sorted by path then index.
func storedRecords(t *testing.T, s Store) []store.ChunkRecord {
	t.Helper()
	recs, err := NewSnapshotReader(s).Snapshot(context.Background())
	require.NoError(t, err)
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].NotePath != recs[j].NotePath {
			return recs[i].NotePath < recs[j].NotePath
		}
		return recs[i].SubNoteIndex < recs[j].SubNoteIndex
	})
	return recs
}

func newTestReconciler(t *testing.T, corpus Corpus, s Store) *Reconciler {
	t.Helper()
	r, err := NewReconciler(Dependencies{
		Corpus:  corpus,
		Chunker: chunk.NewMarkdownChunker(chunk.Options{}),
		Store:   s,
		Workers: 4,
		Now:     fixedClock,
	})
	require.NoError(t, err)
	return r
}

// drain collects every event of run and its outcome.
func drain(run *Run) ([]ProgressEvent, Result, error) {
	var events []ProgressEvent
	for ev := range run.Events() {
		events = append(events, ev)
	}
	res, err := run.Wait()
	return events, res, err
}

// mockStore is a testify mock of Store for failure paths.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CountRows(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Query(ctx context.Context, f store.Filter, limit int) ([]store.Row, error) {
	args := m.Called(ctx, f, limit)
	rows, _ := args.Get(0).([]store.Row)
	return rows, args.Error(1)
}

func (m *mockStore) DeleteByPaths(ctx context.Context, paths []string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *mockStore) Add(ctx context.Context, records []store.ChunkRecord, onProgress func(done, total int)) error {
	return m.Called(ctx, records, onProgress).Error(0)
}

// stubChunker returns fixed chunks per content.
type stubChunker map[string][]string

func (c stubChunker) Chunk(_ context.Context, content string) ([]string, error) {
	return c[content], nil
}
