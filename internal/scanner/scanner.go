package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Scanner discovers note files. It holds no per-scan state and is safe
// for concurrent use.
type Scanner struct {
	extensions  []string
	exclude     []string
	maxFileSize int64
}

// New creates a Scanner. Extensions are compared case-insensitively.
func New(opts Options) *Scanner {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Scanner{
		extensions:  normalized,
		exclude:     slices.Clone(opts.Exclude),
		maxFileSize: maxSize,
	}
}

// List returns every note file under root in walk order.
func (s *Scanner) List(ctx context.Context, root string) ([]FileInfo, error) {
	tree, err := s.Tree(ctx, root)
	if err != nil {
		return nil, err
	}
	return tree.Flatten(), nil
}

// Tree returns the note files under root as a hierarchy. Directories that
// contain no notes are pruned.
func (s *Scanner) Tree(ctx context.Context, root string) (*FileTree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	tree := &FileTree{Name: filepath.Base(absRoot), Path: absRoot}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			slog.Debug("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.shouldExcludeDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.isNote(relPath) || s.shouldExcludeFile(relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > s.maxFileSize {
			slog.Debug("skipping oversized note",
				slog.String("path", relPath),
				slog.Int64("size", fi.Size()))
			return nil
		}

		parent := tree
		if dir := filepath.Dir(relPath); dir != "." {
			for _, part := range strings.Split(dir, string(filepath.Separator)) {
				parent = parent.child(part)
			}
		}
		parent.Children = append(parent.Children, &FileTree{
			Name: d.Name(),
			Path: path,
			File: &FileInfo{
				Path:    path,
				RelPath: relPath,
				Size:    fi.Size(),
				ModTime: fi.ModTime(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// ReadFile returns the whole content of the file at path. Errors from the
// file system are returned unchanged.
func (s *Scanner) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat describes a single file as a scan would. It does not apply the
// extension or exclude filters; use Accepts for that.
func (s *Scanner) Stat(path string) (FileInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Path:    abs,
		RelPath: filepath.Base(abs),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, nil
}

// Accepts reports whether relPath (relative to a scan root) would be
// reported by a scan.
func (s *Scanner) Accepts(relPath string) bool {
	relPath = filepath.Clean(relPath)
	dir := filepath.Dir(relPath)
	if dir != "." {
		parts := strings.Split(dir, string(filepath.Separator))
		for i := range parts {
			if s.shouldExcludeDir(filepath.Join(parts[:i+1]...)) {
				return false
			}
		}
	}
	return s.isNote(relPath) && !s.shouldExcludeFile(relPath)
}

// SkipsDir reports whether a scan skips the root-relative directory
// relPath. Only the last path element is checked against the defaults.
func (s *Scanner) SkipsDir(relPath string) bool {
	return s.shouldExcludeDir(filepath.Clean(relPath))
}

func (s *Scanner) isNote(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	return slices.Contains(s.extensions, ext)
}

func (s *Scanner) shouldExcludeDir(relPath string) bool {
	name := filepath.Base(relPath)
	if strings.HasPrefix(name, ".") {
		return true
	}
	if slices.Contains(defaultExcludeDirs, name) {
		return true
	}
	for _, pattern := range s.exclude {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

func (s *Scanner) shouldExcludeFile(relPath string) bool {
	if strings.HasPrefix(filepath.Base(relPath), ".") {
		return true
	}
	for _, pattern := range s.exclude {
		if matchFilePattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// matchDirPattern checks if a directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	relPath = filepath.ToSlash(relPath)
	pattern = filepath.ToSlash(pattern)

	// **/name/** and **/name match a directory name at any depth
	if strings.HasPrefix(pattern, "**/") {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(relPath, "/") {
			if ok, _ := filepath.Match(name, part); ok {
				return true
			}
		}
		return false
	}

	// dir/** matches the directory itself
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
	}

	ok, _ := filepath.Match(pattern, relPath)
	return ok
}

// matchFilePattern checks if a file path matches a pattern. Patterns
// without a slash are matched against the base name.
func matchFilePattern(relPath, pattern string) bool {
	relPath = filepath.ToSlash(relPath)
	pattern = filepath.ToSlash(pattern)

	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.HasPrefix(pattern, "**/") {
		return strings.HasPrefix(relPath, prefix+"/")
	}

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		parts := strings.Split(relPath, "/")
		for i := range parts {
			if ok, _ := filepath.Match(rest, strings.Join(parts[i:], "/")); ok {
				return true
			}
		}
		return false
	}

	if !strings.Contains(pattern, "/") {
		ok, _ := filepath.Match(pattern, filepath.Base(relPath))
		return ok
	}
	ok, _ := filepath.Match(pattern, relPath)
	return ok
}
