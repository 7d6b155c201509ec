package contextasm

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/rup/internal/symbolindex"
	"github.com/standardbeagle/rup/internal/symbols"
)

// FileReader reads a repo file's content by path. It is the same external
// collaborator the Edit Engine and Patch Generator depend on, injected here
// rather than hardcoded to os.ReadFile so assembly stays testable against
// in-memory fixtures.
type FileReader func(path string) (string, error)

// ExpandTraitResolve expands a "T::m" trait-resolve query into the three
// queries spec.md §4.7.2a names: the trait declaration, an impl of it, and
// the qualified call itself.
func ExpandTraitResolve(spec string) []string {
	trait, _, ok := strings.Cut(spec, "::")
	if !ok || trait == "" {
		return []string{spec}
	}
	return []string{
		"trait " + trait,
		"impl " + trait + " for",
		spec,
	}
}

const (
	callWindow    = 128
	maxCallDepth  = 6
	perHopFileCap = 8
	totalEdgeCap  = 200
)

var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"func": true, "fn": true, "def": true, "match": true, "else": true,
	"catch": true, "try": true, "with": true, "case": true,
}

var callIdentRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// CallGraphHops performs a fixed-depth bounded BFS over the call
// neighborhood of seed function names, returning each discovered name's hop
// distance from the nearest seed (seeds are hop 0). There is no real
// call-graph construction here: edges are a textual approximation per
// spec.md §4.7.2a — a window of lines around each known occurrence is
// scanned for "identifier(" call sites that are not control keywords.
// Bounded by maxCallDepth, perHopFileCap (files inspected per hop per
// name), and totalEdgeCap (total call sites scanned across the whole BFS).
func CallGraphHops(idx *symbolindex.Index, read FileReader, seeds []string) map[string]int {
	hops := make(map[string]int, len(seeds))
	for _, s := range seeds {
		hops[s] = 0
	}

	frontier := append([]string{}, seeds...)
	edgesUsed := 0

	for depth := 0; depth < maxCallDepth && len(frontier) > 0 && edgesUsed < totalEdgeCap; depth++ {
		seenThisHop := make(map[string]bool)
		var next []string

		for _, name := range frontier {
			ranked := idx.Lookup(name, symbolindex.LookupOptions{Limit: perHopFileCap})
			filesVisited := 0
			for _, r := range ranked {
				if filesVisited >= perHopFileCap || edgesUsed >= totalEdgeCap {
					break
				}
				if !strings.EqualFold(r.Symbol.Name, name) {
					continue
				}
				text, err := read(r.Symbol.File)
				if err != nil {
					continue
				}
				filesVisited++

				for _, ident := range callSitesNear(text, r.Symbol.StartLine) {
					edgesUsed++
					if edgesUsed > totalEdgeCap {
						break
					}
					if _, known := hops[ident]; known {
						continue
					}
					if seenThisHop[ident] {
						continue
					}
					seenThisHop[ident] = true
					next = append(next, ident)
				}
			}
		}

		for _, ident := range next {
			if _, known := hops[ident]; !known {
				hops[ident] = depth + 1
			}
		}
		frontier = next
	}

	return hops
}

// callSitesNear scans the callWindow lines centered on startLine (1-based)
// for "identifier(" call sites, excluding control keywords and duplicates.
func callSitesNear(text string, startLine int) []string {
	lines := strings.Split(text, "\n")
	lo := startLine - callWindow/2
	if lo < 0 {
		lo = 0
	}
	hi := startLine + callWindow/2
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, line := range lines[lo:hi] {
		for _, m := range callIdentRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if controlKeywords[name] || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// OwnerFunction returns the smallest function/method Symbol indexed for
// file whose span contains line, or false if none covers it.
func OwnerFunction(idx *symbolindex.Index, file string, line int) (symbols.Symbol, bool) {
	var best symbols.Symbol
	found := false
	for _, s := range idx.ByFile(file) {
		if s.Kind != symbols.KindFunction && s.Kind != symbols.KindMethod {
			continue
		}
		if line < s.StartLine || line > s.EndLine {
			continue
		}
		if !found || (s.EndLine-s.StartLine) < (best.EndLine-best.StartLine) {
			best = s
			found = true
		}
	}
	return best, found
}
