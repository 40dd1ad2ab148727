package language

import (
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "csharp",
		Extensions: []string{".cs"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_csharp.Language() },
		BlockKinds: map[string]string{
			"method_declaration":       "method",
			"constructor_declaration":  "function",
			"class_declaration":        "class",
			"interface_declaration":    "interface",
			"struct_declaration":       "struct",
			"record_declaration":       "struct",
			"enum_declaration":         "enum",
			"namespace_declaration":    "namespace",
			"local_function_statement": "function",
			"lambda_expression":        "closure",
		},
		CommentKinds: defaultCommentKinds,
		TestNode: func(name string, node *tree_sitter.Node, source []byte) bool {
			text := nodeText(node, source)
			prefix := text
			if idx := strings.Index(text, name); idx > 0 {
				prefix = text[:idx]
			}
			return strings.Contains(prefix, "[Test") || strings.Contains(prefix, "[Fact")
		},
		TestFile: func(path string) bool {
			return strings.HasSuffix(path, "Tests.cs") || hasTestDirComponent(path)
		},
	})
}
