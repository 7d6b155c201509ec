// Package symbolindex implements the SymbolIndex: an in-memory ranked lookup
// over a JSONL file of Symbols, ported from the original's
// src/core/symbol_index.rs scoring model.
package symbolindex

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/internal/symbols"
)

// Index is an in-memory, ranked-lookup symbol store.
type Index struct {
	syms   []symbols.Symbol
	byName map[string][]int // lowercased name -> symbol indices
	byFile map[string][]int // file -> symbol indices
}

// Load reads path as a JSONL file of Symbols: one JSON object per line,
// blank lines ignored. A malformed line surfaces a RepoIssue error naming
// its 1-based line number; a missing/unreadable file does the same.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rerrors.RepoIssue("symbol index unreadable: %s", path).WithFile(path).WithCause(err)
	}
	defer f.Close()

	return LoadReader(f, path)
}

// LoadReader reads a JSONL stream of Symbols from r. name is used only for
// error messages (typically the source path).
func LoadReader(r io.Reader, name string) (*Index, error) {
	var syms []symbols.Symbol

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var s symbols.Symbol
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return nil, rerrors.RepoIssue("malformed symbol index entry at %s:%d", name, lineNo).WithFile(name).WithCause(err)
		}
		syms = append(syms, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, rerrors.RepoIssue("reading symbol index %s", name).WithFile(name).WithCause(err)
	}

	return build(syms), nil
}

func build(syms []symbols.Symbol) *Index {
	symbols.Sort(syms)

	idx := &Index{
		syms:   syms,
		byName: make(map[string][]int),
		byFile: make(map[string][]int),
	}
	for i, s := range syms {
		name := strings.ToLower(s.Name)
		idx.byName[name] = append(idx.byName[name], i)
		idx.byFile[s.File] = append(idx.byFile[s.File], i)
	}
	return idx
}

// Len returns the number of indexed symbols.
func (idx *Index) Len() int { return len(idx.syms) }

// ByFile returns every Symbol indexed for file, in their stored
// (deterministic) order.
func (idx *Index) ByFile(file string) []symbols.Symbol {
	indices := idx.byFile[file]
	out := make([]symbols.Symbol, len(indices))
	for i, idx2 := range indices {
		out[i] = idx.syms[idx2]
	}
	return out
}

// LookupOptions parameterizes Lookup.
type LookupOptions struct {
	Semantic   bool
	AnchorFile string
	AnchorLine int
	HasAnchor  bool
	History    map[string]bool
	Limit      int
	Kinds      []symbols.Kind
}

// RankedSymbol is one Lookup result: the matched Symbol plus its score
// tuple, kept for callers that want to explain or re-sort results.
type RankedSymbol struct {
	Symbol    symbols.Symbol
	Semantic  int
	Scope     int
	Proximity int
	History   int
}

func (r RankedSymbol) less(other RankedSymbol) bool {
	if r.Semantic != other.Semantic {
		return r.Semantic < other.Semantic
	}
	if r.Scope != other.Scope {
		return r.Scope < other.Scope
	}
	if r.Proximity != other.Proximity {
		return r.Proximity < other.Proximity
	}
	if r.History != other.History {
		return r.History < other.History
	}
	// Tie-break ascending (file, start_line, qualified_name) — note this
	// comparator is used as "less" for a descending-by-score sort, so the
	// tie-break here must itself produce ascending order among equal scores.
	if r.Symbol.File != other.Symbol.File {
		return r.Symbol.File > other.Symbol.File
	}
	if r.Symbol.StartLine != other.Symbol.StartLine {
		return r.Symbol.StartLine > other.Symbol.StartLine
	}
	return r.Symbol.QualifiedName > other.Symbol.QualifiedName
}

// Lookup returns ranked symbols matching query under options.
func (idx *Index) Lookup(query string, opts LookupOptions) []RankedSymbol {
	limit := opts.Limit
	if limit < 1 {
		limit = 1
	}

	candidates := idx.collectCandidates(query, opts)
	candidates = idx.filterKinds(candidates, opts.Kinds)

	ranked := make([]RankedSymbol, 0, len(candidates))
	for _, i := range candidates {
		s := idx.syms[i]
		ranked = append(ranked, RankedSymbol{
			Symbol:    s,
			Semantic:  semanticScore(query, s),
			Scope:     scopeScore(s, opts),
			Proximity: proximityScore(s, opts),
			History:   historyScore(s, opts),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[j].less(ranked[i])
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// collectCandidates gathers deduplicated symbol indices per spec.md §4.1's
// four-step candidate collection.
func (idx *Index) collectCandidates(query string, opts LookupOptions) []int {
	seen := make(map[int]bool)
	var out []int

	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}

	lowerQuery := strings.ToLower(query)

	// 1) exact lowercase-name matches
	for _, i := range idx.byName[lowerQuery] {
		add(i)
	}

	// 2) prefix/substring name or qualified-name matches
	for i, s := range idx.syms {
		lowerName := strings.ToLower(s.Name)
		lowerQName := strings.ToLower(s.QualifiedName)
		if strings.HasPrefix(lowerName, lowerQuery) || strings.Contains(lowerName, lowerQuery) ||
			strings.HasSuffix(lowerQName, lowerQuery) || strings.Contains(lowerQName, lowerQuery) {
			add(i)
		}
	}

	// 3) all symbols in the anchor directory
	if opts.HasAnchor {
		anchorDir := dirOf(opts.AnchorFile)
		for i, s := range idx.syms {
			if strings.HasPrefix(s.File, anchorDir) {
				add(i)
			}
		}
	}

	// 4) fuzzy token matches
	if opts.Semantic {
		tokens := splitTokens(lowerQuery)
		if len(tokens) > 0 {
			for i, s := range idx.syms {
				lowerName := strings.ToLower(s.Name)
				lowerQName := strings.ToLower(s.QualifiedName)
				allContained := true
				for _, tok := range tokens {
					if !strings.Contains(lowerName, tok) && !strings.Contains(lowerQName, tok) {
						allContained = false
						break
					}
				}
				if allContained {
					add(i)
				}
			}
		}
	}

	return out
}

func (idx *Index) filterKinds(indices []int, kinds []symbols.Kind) []int {
	if len(kinds) == 0 {
		return indices
	}
	allowed := make(map[symbols.Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	out := indices[:0:0]
	for _, i := range indices {
		if allowed[idx.syms[i].Kind] {
			out = append(out, i)
		}
	}
	return out
}

func dirOf(file string) string {
	idx := strings.LastIndex(file, "/")
	if idx < 0 {
		return ""
	}
	return file[:idx+1]
}

func splitTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// semanticScore: 3 exact; 2 prefix; 1 token/segment equality; 0 otherwise.
func semanticScore(query string, s symbols.Symbol) int {
	lowerQuery := strings.ToLower(query)
	lowerName := strings.ToLower(s.Name)

	if lowerName == lowerQuery {
		return 3
	}
	if len(lowerQuery) >= 2 && strings.HasPrefix(lowerName, lowerQuery) {
		return 2
	}
	if len(lowerQuery) >= 2 {
		for _, seg := range strings.FieldsFunc(lowerName, func(r rune) bool {
			return r == '_' || r == '-' || r == '.' || r == ':'
		}) {
			if seg == lowerQuery {
				return 1
			}
		}
	}
	return 0
}

// scopeScore: 1 if symbol's file is within the anchor file's directory.
func scopeScore(s symbols.Symbol, opts LookupOptions) int {
	if !opts.HasAnchor {
		return 0
	}
	anchorDir := dirOf(opts.AnchorFile)
	if anchorDir != "" && strings.HasPrefix(s.File, anchorDir) {
		return 1
	}
	return 0
}

// proximityScore per spec.md §4.1: 3 if same file but far (or no anchor
// line); 2 if same file and <=20 lines away; 1 if same file and <=100 lines
// away; 0 if a different file.
func proximityScore(s symbols.Symbol, opts LookupOptions) int {
	if !opts.HasAnchor || s.File != opts.AnchorFile {
		return 0
	}
	if opts.AnchorLine <= 0 {
		return 3
	}
	dist := s.StartLine - opts.AnchorLine
	if dist < 0 {
		dist = -dist
	}
	switch {
	case dist <= 20:
		return 2
	case dist <= 100:
		return 1
	default:
		return 3
	}
}

func historyScore(s symbols.Symbol, opts LookupOptions) int {
	if opts.History != nil && opts.History[s.QualifiedName] {
		return 1
	}
	return 0
}
