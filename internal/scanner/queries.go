package scanner

// Queries captures the direct children of each translation unit root.
// Deep traversal stays inside tree-sitter; only top-level declarations
// reach the registry.
var Queries = map[string]string{
	"c": `
		(translation_unit (declaration) @decl)
		(translation_unit (function_definition) @func)
		(translation_unit (type_definition) @typedef)
		(translation_unit (struct_specifier) @type)
		(translation_unit (union_specifier) @type)
		(translation_unit (enum_specifier) @type)
	`,
	"cpp": `
		(translation_unit (declaration) @decl)
		(translation_unit (function_definition) @func)
		(translation_unit (type_definition) @typedef)
		(translation_unit (struct_specifier) @type)
		(translation_unit (class_specifier) @type)
		(translation_unit (union_specifier) @type)
		(translation_unit (enum_specifier) @type)
	`,
}
