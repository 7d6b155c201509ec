// Package symbols defines the Symbol data model: an indexed declaration
// parsed from a source file, shared by the SymbolIndex and the default
// SymbolExtractor. Field names and invariants are ported directly from the
// original Rust Symbol/SymbolKind/Visibility types.
package symbols

import "sort"

// Kind enumerates the kinds of declarations rup indexes.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindTrait     Kind = "trait"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindImpl      Kind = "impl"
	KindTypeAlias Kind = "type_alias"
	KindModule    Kind = "module"
	KindPackage   Kind = "package"
	KindVariable  Kind = "variable"
	KindConstant  Kind = "constant"
)

// Visibility is the declared access level of a Symbol, when the source
// language expresses one.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityPrivate     Visibility = "private"
	VisibilityProtected   Visibility = "protected"
	VisibilityInternal    Visibility = "internal"
	VisibilityUnspecified Visibility = ""
)

// Symbol is an indexed declaration parsed from a source file.
type Symbol struct {
	File          string     `json:"file"`
	Lang          string     `json:"lang"`
	Kind          Kind       `json:"kind"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	ByteStart     int        `json:"byte_start"`
	ByteEnd       int        `json:"byte_end"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	Visibility    Visibility `json:"visibility,omitempty"`
	Doc           string     `json:"doc,omitempty"`
}

// Valid reports whether the Symbol satisfies the data-model invariants:
// byte_start <= byte_end, start_line <= end_line. byte_end <= file_size is
// enforced by the caller (the extractor or index loader), which has the file
// size at hand; Symbol itself cannot check it.
func (s Symbol) Valid() bool {
	return s.ByteStart <= s.ByteEnd && s.StartLine <= s.EndLine
}

// Less implements the deterministic ordering: (file asc, start_line asc,
// byte_start asc, name asc).
func Less(a, b Symbol) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	if a.ByteStart != b.ByteStart {
		return a.ByteStart < b.ByteStart
	}
	return a.Name < b.Name
}

// Sort sorts symbols in place using Less.
func Sort(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool { return Less(syms[i], syms[j]) })
}
