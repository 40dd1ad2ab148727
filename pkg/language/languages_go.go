package language

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "go",
		Extensions: []string{".go"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_go.Language() },
		BlockKinds: map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "struct",
			"func_literal":         "closure",
		},
		CommentKinds: defaultCommentKinds,
		// Test status in Go is a property of the file, not the function name.
		TestFile: func(path string) bool {
			return strings.HasSuffix(filepath.Base(path), "_test.go")
		},
	})
}
