package language

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "python",
		Extensions: []string{".py", ".pyw", ".pyi"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_python.Language() },
		BlockKinds: map[string]string{
			"function_definition":  "function",
			"class_definition":     "class",
			"decorated_definition": "function",
			"lambda":               "closure",
		},
		CommentKinds: defaultCommentKinds,
		TestNode:     pythonTestNode,
		TestFile:     pythonTestFile,
	})
}

// pythonTestNode covers pytest-style test_ functions and unittest TestCase
// classes.
func pythonTestNode(name string, node *tree_sitter.Node, source []byte) bool {
	if strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "Test") {
		return true
	}
	if node.Kind() == "class_definition" {
		if sup := node.ChildByFieldName("superclasses"); sup != nil {
			bases := nodeText(sup, source)
			if strings.Contains(bases, "TestCase") || strings.Contains(bases, "unittest") {
				return true
			}
		}
	}
	return false
}

func pythonTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") {
		return true
	}
	if strings.HasSuffix(base, "_test.py") {
		return true
	}
	return hasTestDirComponent(path)
}
