package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// builtinLanguages mirrors the teacher's per-language setup functions, one
// query per language capturing the declaration kinds rup's Symbol.Kind
// enumerates.
func builtinLanguages() []languageSetup {
	return []languageSetup{
		{
			lang:       "go",
			extensions: []string{".go"},
			language:   goLanguage,
			query: `
				(function_declaration name: (identifier) @function.name) @function
				(method_declaration name: (field_identifier) @method.name) @method
				(type_spec name: (type_identifier) @type.name) @type
			`,
		},
		{
			lang:       "python",
			extensions: []string{".py"},
			language:   pythonLanguage,
			query: `
				(function_definition name: (identifier) @function.name) @function
				(class_definition name: (identifier) @class.name) @class
			`,
		},
		{
			lang:       "javascript",
			extensions: []string{".js", ".jsx"},
			language:   javascriptLanguage,
			query: `
				(function_declaration name: (identifier) @function.name) @function
				(generator_function_declaration name: (identifier) @function.name) @function
				(method_definition name: (property_identifier) @method.name) @method
				(class_declaration name: (identifier) @class.name) @class
			`,
		},
		{
			lang:       "typescript",
			extensions: []string{".ts", ".tsx"},
			language:   typescriptLanguage,
			query: `
				(function_declaration name: (identifier) @function.name) @function
				(method_definition name: (property_identifier) @method.name) @method
				(class_declaration name: (type_identifier) @class.name) @class
				(interface_declaration name: (type_identifier) @interface.name) @interface
				(type_alias_declaration name: (type_identifier) @type.name) @type
				(enum_declaration name: (identifier) @enum.name) @enum
			`,
		},
	}
}

func typescriptLanguage() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
}

func goLanguage() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_go.Language())
}

func pythonLanguage() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_python.Language())
}

func javascriptLanguage() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
}
