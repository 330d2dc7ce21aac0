package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates files under root with the given relative paths.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.ToSlash(f.RelPath)
	}
	return out
}

func TestScanner_List_FiltersByExtension(t *testing.T) {
	// Given: a notes directory with mixed files
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.md":          "# A",
		"b.markdown":    "# B",
		"c.txt":         "plain",
		"image.png":     "png",
		"sub/d.md":      "# D",
		"sub/deep/E.MD": "# E",
	})

	// When: listing with default options
	files, err := New(Options{}).List(context.Background(), root)

	// Then: only notes are returned, in walk order
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.markdown", "sub/d.md", "sub/deep/E.MD"}, relPaths(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path), f.Path)
		assert.False(t, f.ModTime.IsZero())
	}
}

func TestScanner_List_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "x", "b.txt": "y"})

	files, err := New(Options{Extensions: []string{"txt"}}).List(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, relPaths(files))
}

func TestScanner_List_SkipsHiddenAndDefaultDirs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"keep.md":                 "x",
		".obsidian/workspace.md":  "x",
		".notesync/notes.md":      "x",
		"node_modules/pkg/doc.md": "x",
		".hidden.md":              "x",
	})

	files, err := New(Options{}).List(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"keep.md"}, relPaths(files))
}

func TestScanner_List_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"keep.md":            "x",
		"archive/old.md":     "x",
		"archive/sub/old.md": "x",
		"daily/draft.md":     "x",
		"daily/2024.md":      "x",
		"x/templates/t.md":   "x",
	})

	s := New(Options{Exclude: []string{"archive/**", "draft*", "**/templates/**"}})
	files, err := s.List(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"daily/2024.md", "keep.md"}, relPaths(files))
}

func TestScanner_List_SkipsOversized(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"small.md": "x", "big.md": "0123456789"})

	files, err := New(Options{MaxFileSize: 5}).List(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, []string{"small.md"}, relPaths(files))
}

func TestScanner_List_EmptyDirectory(t *testing.T) {
	files, err := New(Options{}).List(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanner_List_MissingRoot(t *testing.T) {
	_, err := New(Options{}).List(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanner_List_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "x"})

	_, err := New(Options{}).List(context.Background(), filepath.Join(root, "a.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScanner_List_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).List(ctx, root)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_Tree(t *testing.T) {
	// Given: nested notes and a directory with no notes
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.md":        "x",
		"sub/b.md":    "x",
		"sub/c/d.md":  "x",
		"empty/e.txt": "x",
	})

	// When: building the tree
	tree, err := New(Options{}).Tree(context.Background(), root)
	require.NoError(t, err)

	// Then: hierarchy mirrors the directories holding notes
	assert.True(t, tree.IsDir())
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "a.md", tree.Children[0].Name)
	assert.False(t, tree.Children[0].IsDir())
	sub := tree.Children[1]
	assert.Equal(t, "sub", sub.Name)
	assert.True(t, sub.IsDir())
	assert.Equal(t, filepath.Join(tree.Path, "sub"), sub.Path)

	assert.Equal(t, 3, tree.Count())
	assert.Equal(t, []string{"a.md", "sub/b.md", "sub/c/d.md"}, relPaths(tree.Flatten()))
}

func TestFileTree_FlattenNil(t *testing.T) {
	var tree *FileTree
	assert.Nil(t, tree.Flatten())
}

func TestScanner_ReadFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "# H1\nfoo"})

	s := New(Options{})
	content, err := s.ReadFile(filepath.Join(root, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# H1\nfoo", content)

	_, err = s.ReadFile(filepath.Join(root, "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanner_Stat(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"n.md": "abc"})

	fi, err := New(Options{}).Stat(filepath.Join(root, "n.md"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "n.md"), fi.Path)
	assert.Equal(t, int64(3), fi.Size)
}

func TestScanner_Accepts(t *testing.T) {
	s := New(Options{Exclude: []string{"archive/**"}})

	tests := []struct {
		rel  string
		want bool
	}{
		{"a.md", true},
		{"sub/a.md", true},
		{"a.txt", false},
		{".git/a.md", false},
		{"sub/.trash/a.md", false},
		{"archive/a.md", false},
		{"a.md.swp", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Accepts(tt.rel))
		})
	}
}

func TestMatchFilePattern(t *testing.T) {
	tests := []struct {
		name    string
		rel     string
		pattern string
		want    bool
	}{
		{"base glob", "a/draft-1.md", "draft*", true},
		{"base exact", "a/todo.md", "todo.md", true},
		{"base miss", "a/todo.md", "done.md", false},
		{"dir prefix", "archive/x/y.md", "archive/**", true},
		{"dir prefix miss", "archives/y.md", "archive/**", false},
		{"any depth ext", "a/b/c.tmp.md", "**/*.tmp.md", true},
		{"full path glob", "daily/2024.md", "daily/*.md", true},
		{"full path glob miss", "weekly/2024.md", "daily/*.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchFilePattern(tt.rel, tt.pattern))
		})
	}
}

func TestScanner_SkipsDir(t *testing.T) {
	s := New(Options{Exclude: []string{"archive/**"}})

	assert.True(t, s.SkipsDir(".git"))
	assert.True(t, s.SkipsDir("a/node_modules"))
	assert.True(t, s.SkipsDir("archive"))
	assert.True(t, s.SkipsDir("archive/2023"))
	assert.False(t, s.SkipsDir("journal"))
}
