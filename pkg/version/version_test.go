package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuild(t *testing.T, version, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })
}

func TestGet_CarriesBuildAndFormats(t *testing.T) {
	withBuild(t, "1.4.0", "0123456789abcdef", "2026-03-01T10:00:00Z")

	info := Get(Formats{StoreSchema: 1, Embedder: "hash-256"})

	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, 1, info.StoreSchema)
	assert.Equal(t, "hash-256", info.Embedder)
}

func TestInfo_String(t *testing.T) {
	withBuild(t, "1.4.0", "0123456789abcdef", "2026-03-01")
	info := Get(Formats{StoreSchema: 2, Embedder: "hash-64"})

	lines := info.String()

	assert.Contains(t, lines, "notesync 1.4.0 (commit 0123456789ab, built 2026-03-01, ")
	assert.Contains(t, lines, "\nstore schema v2, embedder hash-64")
	assert.NotContains(t, lines, "cdef")
}

func TestInfo_JSONFlattensFormats(t *testing.T) {
	withBuild(t, "dev", "abc", "unknown")

	data, err := json.Marshal(Get(Formats{StoreSchema: 1, Embedder: "hash-32"}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "dev", got["version"])
	assert.Equal(t, "abc", got["commit"])
	assert.EqualValues(t, 1, got["store_schema"])
	assert.Equal(t, "hash-32", got["embedder"])
	assert.NotContains(t, got, "Formats")
}
