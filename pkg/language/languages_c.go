package language

import (
	"unsafe"

	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

func init() {
	cBlockKinds := map[string]string{
		"function_definition": "function",
		"struct_specifier":    "struct",
		"enum_specifier":      "enum",
		"union_specifier":     "struct",
	}
	cNameFields := map[string]string{
		"function_definition": "declarator",
	}

	Register(&Language{
		Name:         "c",
		Extensions:   []string{".c", ".h"},
		Grammar:      func() unsafe.Pointer { return tree_sitter_c.Language() },
		BlockKinds:   cBlockKinds,
		CommentKinds: defaultCommentKinds,
		NameFields:   cNameFields,
		TestFile:     func(path string) bool { return hasTestDirComponent(path) },
	})

	cppBlockKinds := make(map[string]string, len(cBlockKinds)+4)
	for k, v := range cBlockKinds {
		cppBlockKinds[k] = v
	}
	cppBlockKinds["class_specifier"] = "class"
	cppBlockKinds["namespace_definition"] = "namespace"
	cppBlockKinds["template_declaration"] = "template"
	cppBlockKinds["lambda_expression"] = "closure"

	Register(&Language{
		Name:         "cpp",
		Extensions:   []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		Grammar:      func() unsafe.Pointer { return tree_sitter_cpp.Language() },
		BlockKinds:   cppBlockKinds,
		CommentKinds: defaultCommentKinds,
		NameFields:   cNameFields,
		TestFile:     func(path string) bool { return hasTestDirComponent(path) },
	})
}
