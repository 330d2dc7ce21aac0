package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// StatusInfo describes a store for `notesync status`.
type StatusInfo struct {
	RootDir  string `json:"root_dir"`
	DataDir  string `json:"data_dir"`
	DBPath   string `json:"db_path"`
	DBSize   int64  `json:"db_size"`
	Records  int    `json:"records"`
	Notes    int    `json:"notes"`
	Embedder string `json:"embedder"`
	Locked   bool   `json:"locked"`
	Version  string `json:"version"`
}

// StatusRenderer displays store status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render displays status info as text.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Store Status: "+info.RootDir))
	_, _ = fmt.Fprintf(r.out, "  Notes:    %d\n", info.Notes)
	_, _ = fmt.Fprintf(r.out, "  Records:  %d\n", info.Records)
	_, _ = fmt.Fprintf(r.out, "  Database: %s (%s)\n", info.DBPath, FormatBytes(info.DBSize))
	_, _ = fmt.Fprintf(r.out, "  Embedder: %s\n", info.Embedder)
	if info.Locked {
		_, _ = fmt.Fprintf(r.out, "  Writer:   %s\n", r.styles.Warning.Render("active"))
	} else {
		_, _ = fmt.Fprintf(r.out, "  Writer:   %s\n", r.styles.Success.Render("idle"))
	}
	_, err := fmt.Fprintf(r.out, "  Version:  %s\n", info.Version)
	return err
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
