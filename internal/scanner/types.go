// Package scanner discovers note files under a corpus root.
// It is the corpus provider for reconciliation: a flat listing, a
// hierarchical tree, and whole-file reads.
package scanner

import (
	"path/filepath"
	"time"
)

// FileInfo describes one note file found during a scan.
type FileInfo struct {
	Path    string    // Absolute path, the unique key for a note
	RelPath string    // Path relative to the scan root, for display
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// FileTree is a directory node or a file leaf.
type FileTree struct {
	Name     string
	Path     string // Absolute path
	File     *FileInfo
	Children []*FileTree
}

// IsDir reports whether the node is a directory.
func (t *FileTree) IsDir() bool { return t.File == nil }

// Flatten returns the files under t in walk order. Directories are omitted.
func (t *FileTree) Flatten() []FileInfo {
	if t == nil {
		return nil
	}
	var out []FileInfo
	var walk func(n *FileTree)
	walk = func(n *FileTree) {
		if n.File != nil {
			out = append(out, *n.File)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t)
	return out
}

// Count returns the number of files under t.
func (t *FileTree) Count() int {
	return len(t.Flatten())
}

// child returns the directory child named name, creating it when missing.
func (t *FileTree) child(name string) *FileTree {
	for _, c := range t.Children {
		if c.Name == name && c.IsDir() {
			return c
		}
	}
	c := &FileTree{Name: name, Path: filepath.Join(t.Path, name)}
	t.Children = append(t.Children, c)
	return c
}

// Options configures which files a Scanner reports.
type Options struct {
	// Extensions lists the note extensions to include, with leading dot.
	// Empty means DefaultExtensions.
	Extensions []string

	// Exclude lists glob patterns matched against the root-relative path.
	// "dir/**" and "**/name" forms are supported.
	Exclude []string

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64
}

// DefaultMaxFileSize is the default maximum note size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultExtensions are the note extensions scanned when none are configured.
var DefaultExtensions = []string{".md", ".markdown"}

// Directories that are never descended into. Hidden directories are
// skipped as well.
var defaultExcludeDirs = []string{
	"node_modules",
	"vendor",
	"__pycache__",
}
