package language

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func init() {
	jsBlockKinds := map[string]string{
		"function_declaration":           "function",
		"generator_function_declaration": "function",
		"function_expression":            "function",
		"arrow_function":                 "closure",
		"method_definition":              "method",
		"class_declaration":              "class",
	}

	Register(&Language{
		Name:         "javascript",
		Extensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		Grammar:      func() unsafe.Pointer { return tree_sitter_javascript.Language() },
		BlockKinds:   jsBlockKinds,
		CommentKinds: defaultCommentKinds,
		TestNode:     jsTestNode,
		TestFile:     jsTestFile,
	})

	tsBlockKinds := make(map[string]string, len(jsBlockKinds)+4)
	for k, v := range jsBlockKinds {
		tsBlockKinds[k] = v
	}
	tsBlockKinds["interface_declaration"] = "interface"
	tsBlockKinds["type_alias_declaration"] = "type"
	tsBlockKinds["enum_declaration"] = "enum"
	tsBlockKinds["internal_module"] = "module"

	Register(&Language{
		Name:         "typescript",
		Extensions:   []string{".ts", ".tsx", ".mts", ".cts"},
		Grammar:      func() unsafe.Pointer { return tree_sitter_typescript.LanguageTypescript() },
		BlockKinds:   tsBlockKinds,
		CommentKinds: defaultCommentKinds,
		TestNode:     jsTestNode,
		TestFile:     jsTestFile,
	})
}

// jsTestNode detects describe/it/test call wrappers around the node.
func jsTestNode(name string, node *tree_sitter.Node, source []byte) bool {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Kind() != "call_expression" {
			continue
		}
		fn := cur.ChildByFieldName("function")
		if fn == nil {
			continue
		}
		switch nodeText(fn, source) {
		case "describe", "it", "test", "beforeEach", "afterEach":
			return true
		}
	}
	return false
}

func jsTestFile(path string) bool {
	lower := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{
		".test.ts", ".test.tsx", ".test.js", ".test.jsx",
		".spec.ts", ".spec.tsx", ".spec.js", ".spec.jsx",
	} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return hasTestDirComponent(path)
}
