// Package extract is rup's default SymbolExtractor (spec.md §6.6): given
// source text and a path, it returns the declarations tree-sitter can find
// for that file's language, ready to be sorted into a symbol-index JSONL
// line per entry.
package extract

import (
	"path/filepath"
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/rup/internal/symbols"
)

// languageSetup configures a parser and query for one language.
type languageSetup struct {
	lang       string
	extensions []string
	language   func() *tree_sitter.Language
	query      string
}

// Extractor holds a parser+query per registered language, keyed by file
// extension.
type Extractor struct {
	byExt map[string]*languageSetup
}

// New builds an Extractor with rup's built-in language registrations.
func New() *Extractor {
	e := &Extractor{byExt: make(map[string]*languageSetup)}
	for _, s := range builtinLanguages() {
		setup := s
		for _, ext := range setup.extensions {
			e.byExt[ext] = &setup
		}
	}
	return e
}

// Register adds or overrides the setup for a language's extensions, letting
// callers extend the built-in registry (e.g. for a community grammar).
func (e *Extractor) Register(lang string, extensions []string, language func() *tree_sitter.Language, query string) {
	setup := languageSetup{lang: lang, extensions: extensions, language: language, query: query}
	for _, ext := range extensions {
		e.byExt[ext] = &setup
	}
}

// SupportsExtension reports whether ext (including the leading dot) has a
// registered language.
func (e *Extractor) SupportsExtension(ext string) bool {
	_, ok := e.byExt[ext]
	return ok
}

// Extract parses text as the language registered for path's extension and
// returns every declaration its query captures, nested ones (methods,
// inner functions) included. Unsupported extensions return an
// empty, non-error result: this is a best-effort collaborator per spec.md
// §6.6, not a hard failure.
func (e *Extractor) Extract(text []byte, path string) ([]symbols.Symbol, error) {
	ext := strings.ToLower(filepath.Ext(path))
	setup, ok := e.byExt[ext]
	if !ok {
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	lang := setup.language()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}

	tree := parser.Parse(text, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	query, queryErr := tree_sitter.NewQuery(lang, setup.query)
	if queryErr != nil || query == nil {
		return nil, queryErr
	}
	defer query.Close()

	out := extractMatches(query, tree.RootNode(), text, setup.lang, path)
	Postprocess(out)
	return out, nil
}

func extractMatches(query *tree_sitter.Query, root tree_sitter.Node, content []byte, lang, path string) []symbols.Symbol {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(query, root, content)
	captureNames := query.CaptureNames()

	var out []symbols.Symbol
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		names := make(map[string]string, 4)
		for _, c := range match.Captures {
			cn := captureNames[c.Index]
			if strings.HasSuffix(cn, ".name") {
				names[cn] = string(content[c.Node.StartByte():c.Node.EndByte()])
			}
		}

		for _, c := range match.Captures {
			cn := captureNames[c.Index]
			kind, ok := kindForCapture(cn)
			if !ok {
				continue
			}
			name := names[cn+".name"]
			if name == "" {
				continue
			}
			node := c.Node
			out = append(out, symbols.Symbol{
				File:          path,
				Lang:          lang,
				Kind:          kind,
				Name:          name,
				QualifiedName: name,
				ByteStart:     int(node.StartByte()),
				ByteEnd:       int(node.EndByte()),
				StartLine:     int(node.StartPosition().Row) + 1,
				EndLine:       int(node.EndPosition().Row) + 1,
				Visibility:    visibilityFor(lang, name),
			})
		}
	}
	return out
}

func kindForCapture(captureName string) (symbols.Kind, bool) {
	switch captureName {
	case "function":
		return symbols.KindFunction, true
	case "method":
		return symbols.KindMethod, true
	case "class":
		return symbols.KindClass, true
	case "interface":
		return symbols.KindInterface, true
	case "type":
		return symbols.KindTypeAlias, true
	case "enum":
		return symbols.KindEnum, true
	case "struct":
		return symbols.KindStruct, true
	case "variable":
		return symbols.KindVariable, true
	default:
		return "", false
	}
}

// visibilityFor approximates each language's exported/private convention
// from the declaration name alone, since that is all a single-file,
// cross-reference-free extractor can observe.
func visibilityFor(lang, name string) symbols.Visibility {
	switch lang {
	case "go":
		if len(name) > 0 && unicode.IsUpper(rune(name[0])) {
			return symbols.VisibilityPublic
		}
		return symbols.VisibilityPrivate
	case "python":
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			return symbols.VisibilityPublic
		}
		if strings.HasPrefix(name, "_") {
			return symbols.VisibilityPrivate
		}
		return symbols.VisibilityPublic
	default:
		return symbols.VisibilityUnspecified
	}
}

// Postprocess sorts symbols into the deterministic order spec.md §3
// requires: (file asc, start_line asc, byte_start asc, name asc).
func Postprocess(syms []symbols.Symbol) {
	symbols.Sort(syms)
}
