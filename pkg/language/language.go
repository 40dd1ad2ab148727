// Package language binds file extensions to tree-sitter grammars and the
// per-language policies the block expander needs: which node kinds form
// blocks, how tests and comments are recognized, and where names live.
package language

import (
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language describes one supported language.
type Language struct {
	Name       string
	Extensions []string
	// Grammar returns the tree-sitter language pointer.
	Grammar func() unsafe.Pointer
	// BlockKinds maps emittable AST node kinds to block kind tags
	// (function, class, struct, ...). Walking up from a match stops at the
	// first ancestor present here, so the smallest enclosing block wins.
	BlockKinds map[string]string
	// CommentKinds are node kinds excluded from indexing.
	CommentKinds map[string]bool
	// NameFields maps node kinds to the field holding the defining
	// identifier. Kinds absent here default to "name".
	NameFields map[string]string
	// TestNode reports whether a named block node is a test, given its
	// extracted name. Nil means only file-level detection applies.
	TestNode func(name string, node *tree_sitter.Node, source []byte) bool
	// TestFile reports whether a path is a test file by convention.
	TestFile func(path string) bool
}

var (
	registry     = map[string]*Language{}
	extensionMap = map[string]*Language{}
)

// Register adds a language. Called from per-language init functions.
func Register(l *Language) {
	registry[l.Name] = l
	for _, ext := range l.Extensions {
		extensionMap[ext] = l
	}
}

// ByPath returns the language for a file path, or nil for plain text.
func ByPath(path string) *Language {
	return extensionMap[strings.ToLower(filepath.Ext(path))]
}

// ByName returns a language by registry name, or nil.
func ByName(name string) *Language {
	return registry[strings.ToLower(name)]
}

// Names returns the sorted list of supported language names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TSLanguage wraps the grammar pointer for the tree-sitter runtime.
func (l *Language) TSLanguage() *tree_sitter.Language {
	return tree_sitter.NewLanguage(l.Grammar())
}

// BlockKind returns the block kind tag for an AST node kind.
func (l *Language) BlockKind(nodeKind string) (string, bool) {
	kind, ok := l.BlockKinds[nodeKind]
	return kind, ok
}

// IsComment reports whether an AST node kind is a comment.
func (l *Language) IsComment(nodeKind string) bool {
	return l.CommentKinds[nodeKind]
}

// NodeName extracts the defining identifier of a block node, or "".
func (l *Language) NodeName(node *tree_sitter.Node, source []byte) string {
	field := "name"
	if f, ok := l.NameFields[node.Kind()]; ok {
		field = f
	}
	nameNode := node.ChildByFieldName(field)
	if nameNode == nil {
		return ""
	}
	start, end := nameNode.StartByte(), nameNode.EndByte()
	if start >= uint(len(source)) || end > uint(len(source)) {
		return ""
	}
	name := string(source[start:end])
	// C-style declarators carry parameter lists; keep the identifier only.
	if idx := strings.IndexAny(name, "(["); idx > 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// IsTest reports whether a block node is test code, combining the node and
// file predicates.
func (l *Language) IsTest(name, path string, node *tree_sitter.Node, source []byte) bool {
	if l.TestFile != nil && l.TestFile(path) {
		return true
	}
	if l.TestNode != nil && l.TestNode(name, node, source) {
		return true
	}
	return false
}

// defaultCommentKinds covers the common grammars.
var defaultCommentKinds = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

// nodeText returns the source text of a node, or "" on a bad span.
func nodeText(node *tree_sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= uint(len(source)) || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// hasTestDirComponent reports whether the path passes through a conventional
// test directory.
func hasTestDirComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch part {
		case "test", "tests", "__tests__", "spec", "specs", "testdata":
			return true
		}
	}
	return false
}
