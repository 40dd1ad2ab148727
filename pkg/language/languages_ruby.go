package language

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
)

func init() {
	Register(&Language{
		Name:       "ruby",
		Extensions: []string{".rb", ".rake"},
		Grammar:    func() unsafe.Pointer { return tree_sitter_ruby.Language() },
		BlockKinds: map[string]string{
			"method":           "method",
			"singleton_method": "method",
			"class":            "class",
			"module":           "module",
		},
		CommentKinds: defaultCommentKinds,
		TestNode:     rubyTestNode,
		TestFile: func(path string) bool {
			base := strings.ToLower(filepath.Base(path))
			return strings.HasSuffix(base, "_spec.rb") ||
				strings.HasSuffix(base, "_test.rb") ||
				hasTestDirComponent(path)
		},
	})
}

// rubyTestNode covers minitest-style test_ methods and RSpec describe/it
// wrappers.
func rubyTestNode(name string, node *tree_sitter.Node, source []byte) bool {
	if strings.HasPrefix(name, "test_") {
		return true
	}
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Kind() != "call" {
			continue
		}
		if method := cur.ChildByFieldName("method"); method != nil {
			switch nodeText(method, source) {
			case "describe", "it", "context", "specify":
				return true
			}
		}
	}
	return false
}
