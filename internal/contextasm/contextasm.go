// Package contextasm implements the Context Assembler: the top-level
// composition that pulls from the SymbolIndex, builds and ranks Pieces,
// runs the Budgeter under a chosen fit policy, and renders a stable text or
// JSON manifest, per spec.md §4.7.
package contextasm

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/rup/internal/budgeter"
	"github.com/standardbeagle/rup/internal/piece"
	"github.com/standardbeagle/rup/internal/symbolindex"
	"github.com/standardbeagle/rup/internal/symbols"
	"github.com/standardbeagle/rup/internal/tokenizer"
)

// Tier names one of the three budget/limit presets spec.md §4.7.1 defines.
type Tier string

const (
	TierNone Tier = ""
	TierA    Tier = "A"
	TierB    Tier = "B"
	TierC    Tier = "C"
)

type tierPreset struct {
	Budget       int
	OverallLimit int
	PerQueryCap  int
}

var tierPresets = map[Tier]tierPreset{
	TierA: {Budget: 1200, OverallLimit: 96, PerQueryCap: 6},
	TierB: {Budget: 3000, OverallLimit: 192, PerQueryCap: 8},
	TierC: {Budget: 6000, OverallLimit: 256, PerQueryCap: 12},
}

// Options configures one Assemble call.
type Options struct {
	Model string // tokenizer encoding name, surfaced in the JSON output only

	Tier         Tier
	Budget       int // explicit override; 0 means "use tier or caller must set one"
	OverallLimit int
	PerQueryCap  int

	Queries      []string
	TraitResolve []string // "T::m" specs, expanded via ExpandTraitResolve
	Callgraph    []string // seed function names for CallGraphHops derivation

	AnchorFile string
	AnchorLine int
	HasAnchor  bool
	History    map[string]bool

	FailSignalLog string // raw log text; parsed with ParseFailSignalLog if non-empty

	BucketCaps      *budgeter.BucketCaps
	NoveltyFloor    *float64
	DedupeThreshold *float64
}

// resolvedLimits applies tier presets then explicit overrides.
func (o Options) resolvedLimits() (budget, overallLimit, perQueryCap int) {
	if preset, ok := tierPresets[o.Tier]; ok {
		budget, overallLimit, perQueryCap = preset.Budget, preset.OverallLimit, preset.PerQueryCap
	}
	if o.Budget > 0 {
		budget = o.Budget
	}
	if o.OverallLimit > 0 {
		overallLimit = o.OverallLimit
	}
	if o.PerQueryCap > 0 {
		perQueryCap = o.PerQueryCap
	}
	return
}

// Output is the result of Assemble, renderable as text or JSON (§6.4).
type Output struct {
	Model                string
	Budget               int
	TotalTokens          int
	Tier                 Tier
	EffectiveLimit       int
	EffectiveTopPerQuery int
	Items                []budgeter.FittedItem

	OK     bool
	Reason string // "no_symbols" | "no_matches", set only when !OK
}

const templateID = "__template__"

var templateContent = "You are assisting with a code change. The following pieces are ranked " +
	"by relevance; treat earlier pieces as more authoritative context.\n"

// Assemble runs the prepare/collect/assemble pipeline against idx, rendering
// a deterministic context Output. read loads file contents for piece
// materialization and call-graph derivation.
func Assemble(idx *symbolindex.Index, tok tokenizer.Tokenizer, read FileReader, opts Options) (*Output, error) {
	budget, overallLimit, perQueryCap := opts.resolvedLimits()
	out := &Output{
		Model:                opts.Model,
		Budget:               budget,
		Tier:                 opts.Tier,
		EffectiveLimit:       overallLimit,
		EffectiveTopPerQuery: perQueryCap,
	}

	if idx.Len() == 0 {
		out.OK = false
		out.Reason = "no_symbols"
		return out, nil
	}

	queries := effectiveQueries(idx, read, opts)

	chosen := collectSymbols(idx, opts, queries, overallLimit, perQueryCap)
	if len(chosen) == 0 {
		out.OK = false
		out.Reason = "no_matches"
		return out, nil
	}

	signals := ParseFailSignalLog(opts.FailSignalLog)

	pieces := materializePieces(chosen, read)
	pieces = piece.Merge(pieces)
	pieces = rankPieces(pieces, opts.AnchorFile)

	var hops map[string]int
	if opts.HasAnchor {
		if owner, ok := OwnerFunction(idx, opts.AnchorFile, opts.AnchorLine); ok {
			hops = CallGraphHops(idx, read, []string{owner.Name})
		}
	}

	items, kindByID := buildItems(idx, pieces, opts, signals, hops)
	items = append([]budgeter.Item{templateItem()}, items...)

	b := budgeter.New(tok)
	fit := fitItems(b, items, kindByID, opts, budget)

	out.Items = fit.Items
	out.TotalTokens = fit.TotalTokens
	out.OK = true
	return out, nil
}

func templateItem() budgeter.Item {
	return budgeter.Item{
		ID:        templateID,
		Content:   templateContent,
		Priority:  budgeter.High(),
		Hard:      true,
		MinTokens: 80,
	}
}

// effectiveQueries builds the deduped query list: raw queries, then
// trait-resolve expansions, then callgraph-derived names, first-seen order
// preserved throughout (spec.md §4.7.2a/b).
func effectiveQueries(idx *symbolindex.Index, read FileReader, opts Options) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(q string) {
		if q == "" || seen[q] {
			return
		}
		seen[q] = true
		out = append(out, q)
	}

	for _, q := range opts.Queries {
		add(q)
	}
	for _, spec := range opts.TraitResolve {
		for _, q := range ExpandTraitResolve(spec) {
			add(q)
		}
	}
	if len(opts.Callgraph) > 0 {
		hops := CallGraphHops(idx, read, opts.Callgraph)
		names := make([]string, 0, len(hops))
		for name := range hops {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add(name)
		}
	}
	return out
}

// collectSymbols runs SymbolIndex.Lookup per query, truncates to
// perQueryCap, concatenates in query order, dedupes by symbol identity, and
// re-truncates to the overall limit (spec.md §4.7.2c).
func collectSymbols(idx *symbolindex.Index, opts Options, queries []string, overallLimit, perQueryCap int) []symbols.Symbol {
	seen := make(map[string]bool)
	var out []symbols.Symbol

	for _, q := range queries {
		ranked := idx.Lookup(q, symbolindex.LookupOptions{
			AnchorFile: opts.AnchorFile,
			AnchorLine: opts.AnchorLine,
			HasAnchor:  opts.HasAnchor,
			History:    opts.History,
			Limit:      overallLimit,
		})
		if len(ranked) > perQueryCap {
			ranked = ranked[:perQueryCap]
		}
		for _, r := range ranked {
			key := symbolKey(r.Symbol)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r.Symbol)
		}
	}

	if len(out) > overallLimit {
		out = out[:overallLimit]
	}
	return out
}

func symbolKey(s symbols.Symbol) string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.ByteStart, s.ByteEnd)
}

// materializePieces renders each Symbol's source span into a Piece, using
// the byte span when it lands on UTF-8 boundaries and the content is
// available; falling back to 1-based line slicing otherwise.
func materializePieces(syms []symbols.Symbol, read FileReader) []piece.Piece {
	cache := make(map[string]string)
	out := make([]piece.Piece, 0, len(syms))

	for _, s := range syms {
		text, ok := cache[s.File]
		if !ok {
			t, err := read(s.File)
			if err != nil {
				continue
			}
			text = t
			cache[s.File] = text
		}

		out = append(out, piece.Piece{
			File:      s.File,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			Body:      extractBody(text, s),
			Kind:      s.Kind,
		})
	}
	return out
}

func extractBody(text string, s symbols.Symbol) string {
	if s.ByteStart >= 0 && s.ByteEnd <= len(text) && s.ByteStart <= s.ByteEnd &&
		utf8.RuneStart(byteAt(text, s.ByteStart)) && (s.ByteEnd == len(text) || utf8.RuneStart(byteAt(text, s.ByteEnd))) {
		return text[s.ByteStart:s.ByteEnd]
	}
	lines := strings.Split(text, "\n")
	start := s.StartLine - 1
	end := s.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

func byteAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// rankPieces orders pieces: anchorFile's pieces first, then pieces sharing
// its directory, then everything else, each tier ordered lexicographically
// by (file, start_line) — spec.md §4.7.3c.
func rankPieces(pieces []piece.Piece, anchorFile string) []piece.Piece {
	anchorDir := path.Dir(anchorFile)

	tierOf := func(p piece.Piece) int {
		if anchorFile != "" && p.File == anchorFile {
			return 0
		}
		if anchorFile != "" && path.Dir(p.File) == anchorDir {
			return 1
		}
		return 2
	}

	out := make([]piece.Piece, len(pieces))
	copy(out, pieces)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := tierOf(out[i]), tierOf(out[j])
		if ti != tj {
			return ti < tj
		}
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}

// buildItems turns ranked pieces into budgeter Items: anchor-file pieces
// get High priority, same-directory pieces Medium, others Low; fail-signal
// and call-distance boosts are then applied (spec.md §4.7.3d/e/f). kindByID
// records each item's originating piece.Kind, keyed the same way as
// budgeter.Item.ID, so a later bucket-tagging pass can still tell interface
// declarations apart after the Piece itself is gone.
func buildItems(idx *symbolindex.Index, pieces []piece.Piece, opts Options, signals []FailSignal, hops map[string]int) (items []budgeter.Item, kindByID map[string]symbols.Kind) {
	anchorDir := path.Dir(opts.AnchorFile)
	items = make([]budgeter.Item, 0, len(pieces))
	kindByID = make(map[string]symbols.Kind, len(pieces))

	for _, p := range pieces {
		var prio budgeter.Priority
		switch {
		case opts.AnchorFile != "" && p.File == opts.AnchorFile:
			prio = budgeter.High()
		case opts.AnchorFile != "" && path.Dir(p.File) == anchorDir:
			prio = budgeter.Medium()
		default:
			prio = budgeter.Low()
		}

		if len(signals) > 0 {
			prio = prio.Scale(boostFactor(p.File, p.StartLine, p.EndLine, signals))
		}

		if hops != nil {
			if owner, ok := OwnerFunction(idx, p.File, p.StartLine); ok {
				if hop, known := hops[owner.Name]; known {
					affinity := 1.0 / (1.0 + float64(hop))
					weight := affinity * 0.15
					prio = prio.Scale(1 + weight)
				}
			}
		}

		id := fmt.Sprintf("%s:%d-%d", p.File, p.StartLine, p.EndLine)
		items = append(items, budgeter.Item{
			ID:       id,
			Content:  renderPiece(p),
			Priority: prio,
		})
		kindByID[id] = p.Kind
	}
	return items, kindByID
}

func renderPiece(p piece.Piece) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s:%d-%d\n", p.File, p.StartLine, p.EndLine)
	b.WriteString(p.Body)
	if !strings.HasSuffix(p.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// fitItems dispatches to the Budgeter variant opts selects: bucket-capped
// when BucketCaps is set, dedup-clustered when DedupeThreshold is set,
// otherwise the plain Fit. kindByID is only consulted in the bucket-capped
// path, to tag each item with its originating Symbol.Kind.
func fitItems(b *budgeter.Budgeter, items []budgeter.Item, kindByID map[string]symbols.Kind, opts Options, budget int) budgeter.FitResult {
	if opts.BucketCaps != nil {
		tagged := make([]budgeter.TaggedItem, len(items))
		for i, it := range items {
			tagged[i] = budgeter.TaggedItem{Item: it, Tags: tagsFor(it.ID, kindByID[it.ID])}
		}
		bucketed := b.FitWithBuckets(tagged, *opts.BucketCaps, budget, opts.NoveltyFloor)
		return budgeter.FitResult{Items: bucketed.Items, TotalTokens: bucketed.TotalTokens}
	}
	if opts.DedupeThreshold != nil {
		return b.FitWithDedupe(items, budget, budgeter.DedupeConfig{JaccardThreshold: *opts.DedupeThreshold})
	}
	return b.Fit(items, budget)
}

// tagsFor classifies one item into a content-type bucket: test files by
// naming convention take priority, then interface/trait declarations by
// Symbol.Kind, everything else is plain code.
func tagsFor(id string, kind symbols.Kind) map[budgeter.SpanTag]bool {
	file, _, _ := strings.Cut(id, ":")
	if strings.Contains(file, "_test.") || strings.HasPrefix(path.Base(file), "test_") {
		return map[budgeter.SpanTag]bool{budgeter.TagTest: true}
	}
	if kind == symbols.KindInterface || kind == symbols.KindTrait {
		return map[budgeter.SpanTag]bool{budgeter.TagInterface: true}
	}
	return map[budgeter.SpanTag]bool{budgeter.TagCode: true}
}
