package mcp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/notesync/internal/store"
)

// maxSnippetLines bounds the chunk text shown per search result.
const maxSnippetLines = 12

// ToSearchResultOutput converts a query result for the structured tool output.
// Paths under rootPath are made relative.
func ToSearchResultOutput(r store.QueryResult, rootPath string) SearchResultOutput {
	return SearchResultOutput{
		NotePath:     displayPath(r.NotePath, rootPath),
		SubNoteIndex: r.SubNoteIndex,
		Content:      r.Content,
		Score:        score(r.Distance),
	}
}

// FormatSearchResults formats search results as markdown.
func FormatSearchResults(query string, results []store.QueryResult, rootPath string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No notes found for \"%s\"", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(results)))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("### %d. %s (chunk %d)\n",
			i+1, displayPath(r.NotePath, rootPath), r.SubNoteIndex))
		sb.WriteString(fmt.Sprintf("**Score:** %.2f\n\n", score(r.Distance)))
		sb.WriteString(snippet(r.Content))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// FormatResyncResult formats a resync summary as markdown.
func FormatResyncResult(out *ResyncOutput) string {
	if out.Refreshed == 0 {
		return fmt.Sprintf("Up to date: %d notes, %d records (%dms).", out.Files, out.Stored, out.DurationMS)
	}
	return fmt.Sprintf("Resync complete: %d of %d notes refreshed, %d records inserted (%dms).",
		out.Refreshed, out.Files, out.Inserted, out.DurationMS)
}

// FormatNoteResult formats an update_note or remove_note outcome.
func FormatNoteResult(out *NoteOutput) string {
	return fmt.Sprintf("Note %s: %s", out.Action, out.Path)
}

// FormatIndexStatus formats store status as markdown.
func FormatIndexStatus(out *IndexStatusOutput) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Store Status: %s\n\n", out.RootPath))
	sb.WriteString(fmt.Sprintf("- **Notes:** %d\n", out.Notes))
	sb.WriteString(fmt.Sprintf("- **Records:** %d\n", out.Records))
	if out.Embedder != "" {
		sb.WriteString(fmt.Sprintf("- **Embedder:** %s\n", out.Embedder))
	}
	if b := out.Background; b != nil {
		line := fmt.Sprintf("%s (%s, %.0f%%)", b.Status, b.Stage, b.ProgressPct)
		if b.ErrorMessage != "" {
			line += ": " + b.ErrorMessage
		}
		sb.WriteString(fmt.Sprintf("- **Background resync:** %s\n", line))
	}
	if out.LastResync != nil {
		sb.WriteString(fmt.Sprintf("- **Last resync:** %s\n", FormatResyncResult(out.LastResync)))
	}
	return sb.String()
}

// score maps a cosine distance to a 0..1 similarity.
func score(distance float32) float64 {
	s := 1 - float64(distance)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

func displayPath(path, rootPath string) string {
	if rootPath == "" {
		return path
	}
	rel, err := filepath.Rel(rootPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func snippet(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > maxSnippetLines {
		lines = append(lines[:maxSnippetLines], "...")
	}
	return "> " + strings.Join(lines, "\n> ")
}
