package budgeter

import "strings"

// DedupeConfig configures FitWithDedupe's near-duplicate clustering.
type DedupeConfig struct {
	// JaccardThreshold is the minimum line-set similarity, in [0,1], at which
	// two items are considered near-duplicates. Defaults to 0.8 when zero.
	JaccardThreshold float64
}

func (c DedupeConfig) threshold() float64 {
	if c.JaccardThreshold <= 0 {
		return 0.8
	}
	return c.JaccardThreshold
}

// normalizeForDedupe splits content to lines, strips trailing
// ' '|'\t'|'\r' per line, drops blank lines, and rejoins with LF — the
// normalization spec.md §4.3 specifies for FitWithDedupe, distinct from
// cidhash.Normalize (which keeps blank lines, for CID comparison purposes).
func normalizeForDedupe(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func lineSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	if normalized == "" {
		return set
	}
	for _, line := range strings.Split(normalized, "\n") {
		set[line] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// unionFind is a minimal disjoint-set structure for duplicate clustering.
type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[rb] = ra
	}
}

// FitWithDedupe clusters near-duplicate items (by Jaccard similarity over
// normalized line sets), keeps one survivor per cluster — highest priority,
// then fewest tokens, then lexicographically smallest id — and fits the
// survivors with Fit.
func (b *Budgeter) FitWithDedupe(items []Item, budgetTokens int, cfg DedupeConfig) FitResult {
	threshold := cfg.threshold()

	sets := make([]map[string]struct{}, len(items))
	for i, it := range items {
		sets[i] = lineSet(normalizeForDedupe(it.Content))
	}

	uf := newUnionFind(len(items))
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if jaccard(sets[i], sets[j]) >= threshold {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range items {
		root := uf.find(i)
		clusters[root] = append(clusters[root], i)
	}

	survivors := make([]Item, 0, len(clusters))
	for _, members := range clusters {
		best := members[0]
		for _, idx := range members[1:] {
			if betterSurvivor(b, items[idx], items[best]) {
				best = idx
			}
		}
		survivors = append(survivors, items[best])
	}

	return b.Fit(survivors, budgetTokens)
}

// betterSurvivor reports whether candidate should replace current as a
// cluster's survivor: higher priority wins; tie broken by fewer tokens; tie
// broken by lexicographically smaller id.
func betterSurvivor(b *Budgeter, candidate, current Item) bool {
	if candidate.Priority != current.Priority {
		return current.Priority.Less(candidate.Priority)
	}
	ct, curt := b.Count(candidate.Content), b.Count(current.Content)
	if ct != curt {
		return ct < curt
	}
	return candidate.ID < current.ID
}
