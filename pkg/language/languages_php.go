package language

import (
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "php",
		Extensions: []string{".php"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_php.LanguagePHP() },
		BlockKinds: map[string]string{
			"function_definition":   "function",
			"method_declaration":    "method",
			"class_declaration":     "class",
			"interface_declaration": "interface",
			"trait_declaration":     "trait",
			"enum_declaration":      "enum",
			"anonymous_function":    "closure",
		},
		CommentKinds: defaultCommentKinds,
		TestNode: func(name string, node *tree_sitter.Node, source []byte) bool {
			return strings.HasPrefix(name, "test") || strings.HasSuffix(name, "Test")
		},
		TestFile: func(path string) bool {
			return strings.HasSuffix(path, "Test.php") || hasTestDirComponent(path)
		},
	})
}
