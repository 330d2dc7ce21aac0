package preflight

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/notesync/internal/config"
	"github.com/Aman-CERP/notesync/internal/store"
)

const testDims = 8

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{"required pass is not critical", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail is critical", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail is not critical", CheckResult{Status: StatusFail}, false},
		{"required warn is not critical", CheckResult{Status: StatusWarn, Required: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_SummaryStatus(t *testing.T) {
	c := New()

	assert.Equal(t, "ready", c.SummaryStatus([]CheckResult{{Status: StatusPass, Required: true}}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{
		{Status: StatusPass, Required: true},
		{Status: StatusWarn},
	}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{{Status: StatusFail}}))
	assert.Equal(t, "failed", c.SummaryStatus([]CheckResult{
		{Status: StatusWarn},
		{Status: StatusFail, Required: true},
	}))
}

func TestChecker_RunAll_FreshDirectory(t *testing.T) {
	// Given: a notes directory that was never synced
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A"), 0o644))

	// When: running all checks
	c := New()
	results := c.RunAll(context.Background(), root)

	// Then: every check runs and only the missing store warns
	byName := make(map[string]CheckResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	require.Len(t, byName, 7)
	assert.Equal(t, StatusPass, byName["config"].Status)
	assert.Equal(t, "1 notes", byName["notes"].Message)
	assert.Equal(t, StatusPass, byName["write_permissions"].Status)
	assert.Equal(t, StatusWarn, byName["store"].Status)
	assert.Equal(t, StatusPass, byName["store_lock"].Status)
	assert.False(t, c.HasCriticalFailures(results))
	assert.NoDirExists(t, filepath.Join(root, ".notesync"))
}

func TestChecker_RunAll_BadConfigStopsEarly(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName),
		[]byte("reconcile:\n  workers: -2\n"), 0o644))

	c := New()
	results := c.RunAll(context.Background(), root)

	require.Len(t, results, 1)
	assert.Equal(t, "config", results[0].Name)
	assert.True(t, c.HasCriticalFailures(results))
}

func TestCheckNotes_EmptyDirectoryWarns(t *testing.T) {
	r := New().CheckNotes(context.Background(), t.TempDir(), config.NewConfig())

	assert.Equal(t, StatusWarn, r.Status)
	assert.Equal(t, "0 notes", r.Message)
}

func TestCheckWritePermissions_ReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	r := New().CheckWritePermissions(filepath.Join(dir, ".notesync"))

	assert.Equal(t, StatusFail, r.Status)
	assert.True(t, r.IsCritical())
}

func TestCheckStore_CountsRecordsAndNotes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chunks.db")
	seedStore(t, dbPath, "a.md", "b.md", "b.md")

	r := New().CheckStore(context.Background(), dbPath, testDims)

	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, "3 records, 2 notes", r.Message)
}

func TestCheckStore_ReportsMalformedRows(t *testing.T) {
	// Given: a store with one row whose vector blob is truncated
	dbPath := filepath.Join(t.TempDir(), "chunks.db")
	seedStore(t, dbPath, "a.md")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO chunks (notepath, content, subnoteindex, timeadded, filemodified, vector)
		VALUES ('b.md', 'x', 0, 0, 0, x'010203')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// When: checking the store
	r := New().CheckStore(context.Background(), dbPath, testDims)

	// Then: the row is reported with the parse failure reason
	assert.Equal(t, StatusWarn, r.Status)
	assert.Equal(t, "1 of 2 records are malformed", r.Message)
	assert.Contains(t, r.Details, store.FieldVector)
}

func TestCheckLock_HeldByAnotherWriter(t *testing.T) {
	dataDir := t.TempDir()
	lock := store.NewLock(dataDir)
	require.NoError(t, lock.TryLock())
	defer func() { _ = lock.Unlock() }()

	r := New().CheckLock(dataDir)

	assert.Equal(t, StatusWarn, r.Status)
	assert.Equal(t, lock.Path(), r.Details)
	assert.False(t, r.IsCritical())
}

func TestChecker_PrintResults(t *testing.T) {
	buf := &bytes.Buffer{}
	c := New(WithOutput(buf), WithVerbose(true))

	c.PrintResults([]CheckResult{
		{Name: "config", Status: StatusPass, Message: "OK", Required: true},
		{Name: "store", Status: StatusWarn, Message: "no store yet", Details: "Run 'notesync resync' to create it"},
		{Name: "disk_space", Status: StatusFail, Message: "1 MB free", Required: true},
	})

	out := buf.String()
	assert.Contains(t, out, "[PASS] config: OK")
	assert.Contains(t, out, "      Run 'notesync resync' to create it")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):\n  - disk_space: 1 MB free")
	assert.Contains(t, out, "1 warning(s):\n  - store: no store yet")
}

func TestChecker_ReportJSON(t *testing.T) {
	report := New().Report([]CheckResult{
		{Name: "config", Status: StatusPass, Message: "OK", Required: true},
		{Name: "store_lock", Status: StatusWarn, Message: "held"},
	})

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ready_with_warnings", decoded["status"])
	checks := decoded["checks"].([]any)
	assert.Equal(t, "warn", checks[1].(map[string]any)["status"])
	assert.Equal(t, []any{"store_lock: held"}, decoded["warnings"])
	assert.NotContains(t, decoded, "errors")
}

// seedStore writes one valid record per path to a new store at dbPath.
func seedStore(t *testing.T, dbPath string, paths ...string) {
	t.Helper()
	backend, err := store.OpenSQLite(dbPath, store.SQLiteConfig{Dimensions: testDims})
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	rows := make([]store.Row, len(paths))
	for i, p := range paths {
		vec := make([]float32, testDims)
		vec[i%testDims] = 1
		rows[i] = store.Row{
			store.FieldNotePath:     store.EncodePath(p),
			store.FieldContent:      "chunk",
			store.FieldSubNoteIndex: i,
			store.FieldTimeAdded:    time.Now(),
			store.FieldFileModified: time.Now(),
			store.FieldVector:       vec,
		}
	}
	require.NoError(t, backend.Insert(context.Background(), rows))
}
