package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no cgo
)

// columns maps filterable fields to SQL columns.
var columns = map[string]string{
	FieldNotePath:     "notepath",
	FieldContent:      "content",
	FieldSubNoteIndex: "subnoteindex",
	FieldTimeAdded:    "timeadded",
	FieldFileModified: "filemodified",
}

const selectColumns = "id, notepath, content, subnoteindex, timeadded, filemodified, vector"

// SQLiteConfig configures a SQLiteBackend.
type SQLiteConfig struct {
	// Dimensions is the vector width indexed for search.
	Dimensions int
	// CacheMB sizes the SQLite page cache.
	CacheMB int
}

// SQLiteBackend stores chunk rows in SQLite and serves similarity search
// from an in-memory HNSW graph built over the stored vectors.
type SQLiteBackend struct {
	mu      sync.RWMutex
	db      *sql.DB
	path    string
	vectors *vectorIndex
	closed  bool
}

var _ Backend = (*SQLiteBackend)(nil)

// OpenSQLite opens or creates the database at path. An empty path opens a
// private in-memory database.
func OpenSQLite(path string, cfg SQLiteConfig) (*SQLiteBackend, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the store has a single writer, and :memory: databases
	// are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	cacheMB := cfg.CacheMB
	if cacheMB <= 0 {
		cacheMB = 16
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	b, err := newSQLiteBackend(db, path, cfg.Dimensions)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// newSQLiteBackend prepares the schema and loads vectors on an open db.
func newSQLiteBackend(db *sql.DB, path string, dims int) (*SQLiteBackend, error) {
	b := &SQLiteBackend{
		db:      db,
		path:    path,
		vectors: newVectorIndex(dims),
	}
	if err := b.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := b.loadVectors(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return b, nil
}

// SchemaVersion is the layout of the chunks table written by this build,
// stored in the database's user_version.
const SchemaVersion = 1

func (b *SQLiteBackend) initSchema() error {
	var current int
	if err := b.db.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("store schema v%d is newer than supported v%d", current, SchemaVersion)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		notepath TEXT NOT NULL,
		content TEXT NOT NULL,
		subnoteindex INTEGER NOT NULL,
		timeadded INTEGER NOT NULL,
		filemodified INTEGER NOT NULL,
		vector BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_notepath ON chunks(notepath);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return err
	}
	if current < SchemaVersion {
		_, err := b.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion))
		return err
	}
	return nil
}

func (b *SQLiteBackend) loadVectors(ctx context.Context) error {
	rows, err := b.db.QueryContext(ctx, `SELECT id, vector FROM chunks`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			continue
		}
		b.vectors.add(id, vec)
	}
	return rows.Err()
}

// CountRows returns the number of stored rows.
func (b *SQLiteBackend) CountRows(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, fmt.Errorf("store is closed")
	}

	var n int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Query returns up to limit rows matching f in insertion order.
func (b *SQLiteBackend) Query(ctx context.Context, f Filter, limit int) ([]Row, error) {
	where, args, err := f.SQL(columns)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	query := fmt.Sprintf(`SELECT %s FROM chunks WHERE %s ORDER BY id LIMIT ?`, selectColumns, where)
	rows, err := b.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	out, _, err := scanRows(rows)
	return out, err
}

// maxInValues bounds the values bound in one IN clause. SQLite rejects
// statements with more than 32766 parameters.
const maxInValues = 500

// Delete removes every row matching f in one transaction. Large IN
// predicates are deleted in batches within that transaction.
func (b *SQLiteBackend) Delete(ctx context.Context, f Filter) error {
	batches := f.Batches(maxInValues)
	wheres := make([]string, len(batches))
	argsets := make([][]any, len(batches))
	for i, bf := range batches {
		where, args, err := bf.SQL(columns)
		if err != nil {
			return err
		}
		wheres[i], argsets[i] = where, args
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed []int64
	for i, where := range wheres {
		ids, err := selectIDs(ctx, tx, where, argsets[i])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE `+where, argsets[i]...); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		removed = append(removed, ids...)
	}
	if len(removed) == 0 {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	b.vectors.remove(removed)
	return nil
}

func selectIDs(ctx context.Context, tx *sql.Tx, where string, args []any) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select chunks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Insert stores rows in one transaction and indexes their vectors.
func (b *SQLiteBackend) Insert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (notepath, content, subnoteindex, timeadded, filemodified, vector)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	type added struct {
		id  int64
		vec []float32
	}
	inserted := make([]added, 0, len(rows))

	for i, row := range rows {
		args, vec, err := insertArgs(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read chunk id: %w", err)
		}
		inserted = append(inserted, added{id: id, vec: vec})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}

	for _, a := range inserted {
		b.vectors.add(a.id, a.vec)
	}
	return nil
}

// insertArgs validates a row through ParseRecord and lays it out as
// statement arguments. The note path is stored exactly as given.
func insertArgs(row Row) ([]any, []float32, error) {
	rec, err := ParseRecord(row)
	if err != nil {
		return nil, nil, err
	}
	key, _ := row[FieldNotePath].(string)
	return []any{
		key,
		rec.Content,
		rec.SubNoteIndex,
		rec.TimeAdded.UnixMilli(),
		rec.FileModified.UnixMilli(),
		encodeVector(rec.Vector),
	}, rec.Vector, nil
}

// Search returns the rows nearest to vector, closest first.
func (b *SQLiteBackend) Search(ctx context.Context, vector []float32, limit int) ([]Row, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	hits := b.vectors.search(vector, limit)
	if len(hits) == 0 {
		return []Row{}, nil
	}

	args := make([]any, len(hits))
	distance := make(map[int64]float32, len(hits))
	for i, h := range hits {
		args[i] = h.id
		distance[h.id] = h.distance
	}

	query := fmt.Sprintf(`SELECT %s FROM chunks WHERE id IN (%s)`, selectColumns, placeholders(len(hits)))
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search hits: %w", err)
	}
	defer rows.Close()

	out, ids, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	for i, row := range out {
		row[FieldDistance] = distance[ids[i]]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i][FieldDistance].(float32) < out[j][FieldDistance].(float32)
	})
	return out, nil
}

// scanRows converts result rows to Rows, returning the row ids alongside.
// Timestamps become time.Time; vectors stay as their raw blobs and are
// decoded by ParseRecord.
func scanRows(rows *sql.Rows) ([]Row, []int64, error) {
	var out []Row
	var ids []int64
	for rows.Next() {
		var (
			id                int64
			notepath, content string
			index             int64
			added, modified   int64
			vector            []byte
		)
		if err := rows.Scan(&id, &notepath, &content, &index, &added, &modified, &vector); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		row := Row{
			FieldNotePath:     notepath,
			FieldContent:      content,
			FieldSubNoteIndex: index,
			FieldTimeAdded:    time.UnixMilli(added),
			FieldFileModified: time.UnixMilli(modified),
		}
		if vector == nil {
			vector = []byte{}
		}
		row[FieldVector] = vector
		out = append(out, row)
		ids = append(ids, id)
	}
	return out, ids, rows.Err()
}

// Path returns the database path, empty for in-memory databases.
func (b *SQLiteBackend) Path() string { return b.path }

// Close closes the database. It is safe to call more than once.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
