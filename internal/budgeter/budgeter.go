// Package budgeter counts tokens deterministically and fits prioritized
// items into a token budget, with optional dedup and bucket-partitioned
// variants. It is the Go port of the original's Budgeter (tiktoken-rs backed,
// xxhash-keyed cache), generalized with the bucket/dedupe/novelty operations
// spec.md §4.3 adds beyond what the captured original source covers.
package budgeter

import (
	"sort"
	"strings"

	"github.com/standardbeagle/rup/internal/tokenizer"
)

// Item is a context item candidate to budget.
type Item struct {
	// ID is a stable identifier, e.g. "<path>:<start>-<end>", or
	// "__template__" for the instruction header.
	ID string

	// Content is the rendered body text of the item.
	Content string

	// Priority determines selection order: higher sorts first.
	Priority Priority

	// Hard items must be included to at least MinTokens.
	Hard bool

	// MinTokens is the floor to keep when trimming is necessary.
	MinTokens int
}

// FitResult is the output of Fit/FitWithDedupe: items that fit within the
// budget, and the aggregate token count they consume.
type FitResult struct {
	Items       []FittedItem
	TotalTokens int
}

// FittedItem is the budgeter's output per item.
type FittedItem struct {
	ID      string
	Content string
	Tokens  int
}

// Budgeter counts tokens (with a hashed cache) and fits items into a budget.
type Budgeter struct {
	tok   tokenizer.Tokenizer
	cache *tokenCache
}

// New creates a Budgeter backed by tok.
func New(tok tokenizer.Tokenizer) *Budgeter {
	return &Budgeter{tok: tok, cache: newTokenCache()}
}

// Count returns the number of tokens in s, using the cache for efficiency.
func (b *Budgeter) Count(s string) int {
	if n, ok := b.cache.get(s); ok {
		return n
	}
	n := b.tok.Count(s)
	b.cache.put(s, n)
	return n
}

// sortItems orders items by (priority desc, id asc), the deterministic total
// order every fit operation requires.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[j].Priority.Less(items[i].Priority)
		}
		return items[i].ID < items[j].ID
	})
}

// Fit fits items into budgetTokens deterministically with trimming, per
// spec.md §4.3's fit algorithm:
//  1. sort by (priority desc, id asc)
//  2. reserve hard items minimally
//  3. add remaining items fully while they fit, trimming the first that
//     doesn't but has a usable MinTokens floor
//  4. shrink from the lowest-priority tail if rounding left the total over
//     budget
func (b *Budgeter) Fit(items []Item, budgetTokens int) FitResult {
	ordered := make([]Item, len(items))
	copy(ordered, items)
	sortItems(ordered)

	var out []FittedItem
	remaining := budgetTokens

	hardIDs := make(map[string]bool)
	for _, it := range ordered {
		if !it.Hard {
			continue
		}
		hardIDs[it.ID] = true

		need := it.MinTokens
		if need < 1 {
			need = 1
		}
		if remaining < need {
			continue
		}

		content, tok := b.takePrefix(it.Content, need)
		out = append(out, FittedItem{ID: it.ID, Content: content, Tokens: tok})
		remaining -= tok
	}

	for _, it := range ordered {
		if hardIDs[it.ID] {
			continue
		}
		tok := b.Count(it.Content)
		if tok <= remaining {
			out = append(out, FittedItem{ID: it.ID, Content: it.Content, Tokens: tok})
			remaining -= tok
		} else if it.MinTokens > 0 && remaining >= it.MinTokens {
			content, t := b.takePrefix(it.Content, remaining)
			out = append(out, FittedItem{ID: it.ID, Content: content, Tokens: t})
			remaining = 0
			break
		}
	}

	total := totalTokens(out)
	if total > budgetTokens {
		shrinkTail(b, out, budgetTokens)
		total = totalTokens(out)
	}

	return FitResult{Items: out, TotalTokens: total}
}

func totalTokens(items []FittedItem) int {
	sum := 0
	for _, it := range items {
		sum += it.Tokens
	}
	return sum
}

// shrinkTail re-prefixes items from the end of out (lowest priority,
// preserving the deterministic iteration order already established) until
// the total fits within budgetTokens. Mutates out in place.
func shrinkTail(b *Budgeter, out []FittedItem, budgetTokens int) {
	excess := totalTokens(out) - budgetTokens
	for i := len(out) - 1; i >= 0 && excess > 0; i-- {
		keep := out[i].Tokens - excess
		if keep < 0 {
			keep = 0
		}
		content, t := b.takePrefix(out[i].Content, keep)
		excess -= out[i].Tokens - t
		out[i].Content = content
		out[i].Tokens = t
	}
}

// takePrefix returns a prefix of s with at most maxTokens tokens. If s is
// trimmed, it appends a visible ellipsis marker and ensures a trailing
// newline, per spec.md §4.3's prefix sub-operation.
func (b *Budgeter) takePrefix(s string, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		return "", 0
	}

	ids := b.tok.Encode(s)
	if len(ids) <= maxTokens {
		return s, len(ids)
	}

	prefixIDs := ids[:maxTokens]
	text := b.tok.Decode(prefixIDs)
	text = strings.TrimRight(text, " \t\r\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += "…\n"

	return text, maxTokens
}
