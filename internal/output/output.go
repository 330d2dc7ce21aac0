// Package output formats the one-shot messages of CLI commands.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/notesync/internal/store"
	"github.com/Aman-CERP/notesync/internal/ui"
)

// Writer prints status lines and search results.
type Writer struct {
	out    io.Writer
	styles ui.Styles
}

// New creates a Writer. Color is used only for terminals without NO_COLOR.
func New(out io.Writer) *Writer {
	noColor := !ui.IsTTY(out) || ui.DetectNoColor()
	return &Writer{out: out, styles: ui.GetStyles(noColor)}
}

// Success prints a success message with a check mark.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render("! "+msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// SearchResults prints search hits, nearest first. Paths under root are
// shown relative to it.
func (w *Writer) SearchResults(query string, results []store.QueryResult, root string) {
	if len(results) == 0 {
		w.Warningf("No notes found for %q", query)
		return
	}

	for i, r := range results {
		path := r.NotePath
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		header := fmt.Sprintf("%d. %s #%d", i+1, path, r.SubNoteIndex)
		_, _ = fmt.Fprintf(w.out, "%s  %s\n",
			w.styles.Header.Render(header),
			w.styles.Dim.Render(fmt.Sprintf("distance %.3f", r.Distance)))
		for _, line := range preview(r.Content, 3) {
			_, _ = fmt.Fprintf(w.out, "   %s\n", line)
		}
	}
}

// preview returns the first n non-blank lines of content.
func preview(content string, n int) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(lines) == n {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, line)
	}
	return lines
}
