// Package scanner walks a source tree and reports, per file and term
// variant, the line numbers where the variant occurs.
package scanner

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrPathNotFound reports a missing search root.
var ErrPathNotFound = errors.New("path not found")

// maxFileSize skips files unlikely to be handwritten source.
const maxFileSize = 1 << 20

// IgnoreRules handles .gitignore, .ignore and builtin ignore patterns.
type IgnoreRules struct {
	patterns []string
	rootPath string
}

// NewIgnoreRules loads the builtin ignore set plus .gitignore and .ignore
// from the root.
func NewIgnoreRules(rootPath string) *IgnoreRules {
	ir := &IgnoreRules{rootPath: rootPath}

	// Builtin ignores: VCS metadata, package managers, build output.
	ir.patterns = append(ir.patterns,
		".git",
		"node_modules",
		"vendor",
		"__pycache__",
		".idea",
		".vscode",
		"dist",
		"build",
		"target",
		"*.min.js",
		"*.bundle.js",
		"go.sum",
		"package-lock.json",
		"yarn.lock",
	)

	ir.loadIgnoreFile(filepath.Join(rootPath, ".gitignore"))
	ir.loadIgnoreFile(filepath.Join(rootPath, ".ignore"))

	return ir
}

func (ir *IgnoreRules) loadIgnoreFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "!") {
			ir.patterns = append(ir.patterns, strings.TrimSuffix(line, "/"))
		}
	}
}

// ShouldIgnore reports whether a path is excluded from the walk.
func (ir *IgnoreRules) ShouldIgnore(path string) bool {
	relPath, err := filepath.Rel(ir.rootPath, path)
	if err != nil {
		return false
	}
	if relPath == "." {
		return false
	}

	base := filepath.Base(path)

	// Hidden dotfiles and dot-directories are always excluded.
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}

	rel := filepath.ToSlash(relPath)
	for _, pattern := range ir.patterns {
		if strings.Contains(pattern, "**") {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			if part == pattern {
				return true
			}
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}

	return false
}

// Walker collects candidate files under a root.
type Walker struct {
	rootPath   string
	singleFile string
	ignore     *IgnoreRules
}

// NewWalker validates the root and loads its ignore rules.
func NewWalker(rootPath string) (*Walker, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, ErrPathNotFound
	}
	if !info.IsDir() {
		// A single file is a valid search root.
		dir := filepath.Dir(abs)
		return &Walker{rootPath: dir, singleFile: abs, ignore: NewIgnoreRules(dir)}, nil
	}
	return &Walker{rootPath: abs, ignore: NewIgnoreRules(abs)}, nil
}

// Root returns the absolute root path.
func (w *Walker) Root() string { return w.rootPath }

// Walk returns all candidate files in deterministic order.
func (w *Walker) Walk() ([]string, error) {
	if w.singleFile != "" {
		return []string{w.singleFile}, nil
	}
	var files []string
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are skipped, not fatal.
		}
		if d.IsDir() {
			if path != w.rootPath && w.ignore.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ignore.ShouldIgnore(path) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() == 0 || info.Size() > maxFileSize {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}
