package scanner

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

// extLanguages maps file extensions to grammar names.
var extLanguages = map[string]string{
	".c":   "c",
	".h":   "c",
	".cc":  "cpp",
	".cpp": "cpp",
	".cxx": "cpp",
	".hh":  "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
}

func loadLanguage(name string) (*tree_sitter.Language, error) {
	switch name {
	case "c":
		return tree_sitter.NewLanguage(tree_sitter_c.Language()), nil
	case "cpp":
		return tree_sitter.NewLanguage(tree_sitter_cpp.Language()), nil
	default:
		return nil, fmt.Errorf("unsupported language: %q", name)
	}
}
