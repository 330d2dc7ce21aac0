package mcp

import "github.com/Aman-CERP/notesync/internal/async"

// ResyncInput defines the input schema for the resync tool.
type ResyncInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"notes directory to resync, default the served root"`
}

// ResyncOutput defines the output schema for the resync tool.
type ResyncOutput struct {
	Files      int   `json:"files" jsonschema:"notes found in the directory"`
	Stored     int   `json:"stored" jsonschema:"records in the store before the pass"`
	Refreshed  int   `json:"refreshed" jsonschema:"notes whose records were replaced"`
	Inserted   int   `json:"inserted" jsonschema:"records inserted"`
	DurationMS int64 `json:"duration_ms" jsonschema:"wall time of the pass in milliseconds"`
}

// NoteInput defines the input schema for update_note and remove_note.
type NoteInput struct {
	Path string `json:"path" jsonschema:"note path, absolute or relative to the served root"`
}

// NoteOutput reports what happened to a note.
type NoteOutput struct {
	Path   string `json:"path"`
	Action string `json:"action" jsonschema:"updated or removed"`
}

// SearchInput defines the input schema for the search_notes tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchOutput defines the output schema for the search_notes tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of matching chunks, closest first"`
}

// SearchResultOutput is a single matching chunk.
type SearchResultOutput struct {
	NotePath     string  `json:"note_path" jsonschema:"note path relative to the served root"`
	SubNoteIndex int     `json:"sub_note_index" jsonschema:"position of the chunk within the note"`
	Content      string  `json:"content" jsonschema:"chunk text"`
	Score        float64 `json:"score" jsonschema:"similarity between 0 and 1"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	RootPath   string        `json:"root_path"`
	Records    int           `json:"records"`
	Notes      int           `json:"notes"`
	Embedder   string        `json:"embedder,omitempty"`
	LastResync *ResyncOutput `json:"last_resync,omitempty"`
	// Background is the startup resync, when one was started.
	Background *async.Snapshot `json:"background,omitempty"`
}
