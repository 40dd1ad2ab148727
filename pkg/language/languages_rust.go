package language

import (
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "rust",
		Extensions: []string{".rs"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_rust.Language() },
		BlockKinds: map[string]string{
			"function_item":      "function",
			"impl_item":          "impl",
			"struct_item":        "struct",
			"enum_item":          "enum",
			"trait_item":         "trait",
			"mod_item":           "module",
			"macro_definition":   "function",
			"closure_expression": "closure",
		},
		CommentKinds: defaultCommentKinds,
		NameFields: map[string]string{
			"impl_item": "type",
		},
		TestNode: rustTestNode,
		TestFile: func(path string) bool { return hasTestDirComponent(path) },
	})
}

// rustTestNode looks for #[test] / #[cfg(test)] attributes directly above
// the item.
func rustTestNode(name string, node *tree_sitter.Node, source []byte) bool {
	for sib := node.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
		kind := sib.Kind()
		if kind != "attribute_item" {
			break
		}
		attr := nodeText(sib, source)
		if strings.Contains(attr, "test") {
			return true
		}
	}
	return false
}
