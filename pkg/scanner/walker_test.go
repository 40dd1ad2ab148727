package scanner

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewWalker_PathNotFound(t *testing.T) {
	_, err := NewWalker("/does/not/exist")
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestWalk_IgnoreRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.go", "package keep\n")
	writeFile(t, dir, ".hidden.go", "package hidden\n")
	writeFile(t, dir, "node_modules/dep/index.js", "module.exports = 1\n")
	writeFile(t, dir, "dist/out.js", "var x = 1\n")
	writeFile(t, dir, "generated/skip.go", "package skip\n")
	writeFile(t, dir, ".gitignore", "generated/\n")

	w, err := NewWalker(dir)
	if err != nil {
		t.Fatal(err)
	}
	files, err := w.Walk()
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 1 || filepath.Base(files[0]) != "keep.go" {
		t.Errorf("expected only keep.go, got %v", files)
	}
}

func TestWalk_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "only.go", "package only\n")
	writeFile(t, dir, "sibling.go", "package sibling\n")

	w, err := NewWalker(target)
	if err != nil {
		t.Fatal(err)
	}
	files, err := w.Walk()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != target {
		t.Errorf("single-file root must yield exactly that file, got %v", files)
	}
}

func TestShouldIgnore_Patterns(t *testing.T) {
	dir := t.TempDir()
	ir := NewIgnoreRules(dir)

	cases := []struct {
		rel  string
		want bool
	}{
		{"src/main.go", false},
		{"node_modules/x/y.js", true},
		{"app.min.js", true},
		{"vendor/pkg/a.go", true},
		{".env", true},
		{"deep/dist/bundle.js", true},
	}
	for _, tt := range cases {
		got := ir.ShouldIgnore(filepath.Join(dir, tt.rel))
		if got != tt.want {
			t.Errorf("ShouldIgnore(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
