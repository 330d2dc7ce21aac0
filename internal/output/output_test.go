package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/notesync/internal/store"
)

func TestWriter_Messages(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("Updated %s", "a.md")
	w.Warning("careful")
	w.Newline()

	assert.Equal(t, "✓ Updated a.md\n! careful\n\n", buf.String())
}

func TestWriter_SearchResults(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	results := []store.QueryResult{
		{
			ChunkRecord: store.ChunkRecord{
				NotePath:     "/n/garden/beds.md",
				SubNoteIndex: 1,
				Content:      "# Beds\n\ntomatoes\nbasil\nkale\nchard",
			},
			Distance: 0.125,
		},
	}

	w.SearchResults("veg", results, "/n")

	assert.Equal(t,
		"1. garden/beds.md #1  distance 0.125\n   # Beds\n   tomatoes\n   basil\n   ...\n",
		buf.String())
}

func TestWriter_SearchResults_OutsideRoot(t *testing.T) {
	buf := &bytes.Buffer{}
	results := []store.QueryResult{{ChunkRecord: store.ChunkRecord{NotePath: "/other/x.md", Content: "x"}}}

	New(buf).SearchResults("q", results, "/n")

	assert.Contains(t, buf.String(), "1. /other/x.md #0")
}

func TestWriter_SearchResults_Empty(t *testing.T) {
	buf := &bytes.Buffer{}

	New(buf).SearchResults("kale", nil, "/n")

	assert.Equal(t, "! No notes found for \"kale\"\n", buf.String())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, preview("a\n\n  b  \n", 3))
	assert.Nil(t, preview("   \n", 3))
}
