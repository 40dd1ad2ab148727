package language

import (
	"strings"
	"unsafe"

	tree_sitter_swift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func init() {
	Register(&Language{
		Name:       "swift",
		Extensions: []string{".swift"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_swift.Language() },
		BlockKinds: map[string]string{
			"function_declaration": "function",
			"class_declaration":    "class",
			"protocol_declaration": "interface",
			"init_declaration":     "function",
			"lambda_literal":       "closure",
		},
		CommentKinds: map[string]bool{
			"comment":           true,
			"multiline_comment": true,
		},
		TestNode: func(name string, node *tree_sitter.Node, source []byte) bool {
			return strings.HasPrefix(name, "test")
		},
		TestFile: func(path string) bool {
			return strings.HasSuffix(path, "Tests.swift") || hasTestDirComponent(path)
		},
	})
}
