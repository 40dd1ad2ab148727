package language

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_java.Language() },
		BlockKinds: map[string]string{
			"method_declaration":      "method",
			"constructor_declaration": "function",
			"class_declaration":       "class",
			"interface_declaration":   "interface",
			"enum_declaration":        "enum",
			"record_declaration":      "struct",
		},
		CommentKinds: defaultCommentKinds,
		TestNode:     javaTestNode,
		TestFile: func(path string) bool {
			base := filepath.Base(path)
			return strings.HasSuffix(base, "Test.java") ||
				strings.HasSuffix(base, "Tests.java") ||
				hasTestDirComponent(path)
		},
	})
}

// javaTestNode detects Test-prefixed classes and @Test annotated methods.
func javaTestNode(name string, node *tree_sitter.Node, source []byte) bool {
	if node.Kind() == "class_declaration" &&
		(strings.HasPrefix(name, "Test") || strings.HasSuffix(name, "Test")) {
		return true
	}
	if mods := node.ChildByFieldName("modifiers"); mods != nil {
		if strings.Contains(nodeText(mods, source), "@Test") {
			return true
		}
	}
	// Annotations precede the name as unnamed modifier children.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "modifiers" && strings.Contains(nodeText(child, source), "@Test") {
			return true
		}
	}
	return false
}
