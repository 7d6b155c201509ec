package budgeter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/surgebase/porter2"
)

// SpanTag classifies a TaggedItem's content for bucket partitioning.
type SpanTag string

const (
	TagCode      SpanTag = "code"
	TagInterface SpanTag = "interface"
	TagTest      SpanTag = "test"
)

// TaggedItem is a budgeter Item additionally tagged with the content-type
// buckets it belongs to.
type TaggedItem struct {
	Item
	Tags map[SpanTag]bool
}

// BucketCaps is the per-bucket share of the total budget, expressed as
// percentages that must sum to at most 100.
type BucketCaps struct {
	Code       int
	Interfaces int
	Tests      int
}

// ParseBucketCaps parses a caps string of the form
// "code=60,interfaces=20,tests=20".
func ParseBucketCaps(s string) (BucketCaps, error) {
	var caps BucketCaps
	sum := 0

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return BucketCaps{}, fmt.Errorf("invalid bucket cap %q", part)
		}
		key := strings.TrimSpace(kv[0])
		val, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return BucketCaps{}, fmt.Errorf("invalid bucket cap value %q: %w", part, err)
		}
		switch key {
		case "code":
			caps.Code = val
		case "interfaces":
			caps.Interfaces = val
		case "tests":
			caps.Tests = val
		default:
			return BucketCaps{}, fmt.Errorf("unknown bucket %q", key)
		}
		sum += val
	}

	if sum > 100 {
		return BucketCaps{}, fmt.Errorf("bucket caps sum to %d%%, must be <= 100", sum)
	}
	return caps, nil
}

func (c BucketCaps) budgetFor(tag SpanTag, total int) int {
	pct := 0
	switch tag {
	case TagCode:
		pct = c.Code
	case TagInterface:
		pct = c.Interfaces
	case TagTest:
		pct = c.Tests
	}
	return total * pct / 100
}

// Refusal records an item rejected before fitting, with its reason.
type Refusal struct {
	ID     string
	Bucket SpanTag
	Reason string
}

// BucketFitResult is the output of FitWithBuckets.
type BucketFitResult struct {
	Items       []FittedItem
	TotalTokens int
	Refusals    []Refusal
}

// bucketOrder is the fixed processing order spec.md §4.3 requires.
var bucketOrder = []SpanTag{TagInterface, TagCode, TagTest}

// FitWithBuckets partitions tagged_items into fixed content-type buckets
// (processed in the order interfaces, code, tests), each capped to a
// percentage share of budgetTotal, with an optional TF-IDF novelty floor
// that refuses items scoring too low before any fitting happens.
func (b *Budgeter) FitWithBuckets(items []TaggedItem, caps BucketCaps, budgetTotal int, noveltyFloor *float64) BucketFitResult {
	var noveltyScores map[string]float64
	if noveltyFloor != nil {
		noveltyScores = tfidfNoveltyScores(items)
	}

	var result BucketFitResult

	for _, tag := range bucketOrder {
		budget := caps.budgetFor(tag, budgetTotal)
		var candidates []Item

		for _, ti := range items {
			if !ti.Tags[tag] {
				continue
			}
			if noveltyFloor != nil && noveltyScores[ti.ID] < *noveltyFloor {
				result.Refusals = append(result.Refusals, Refusal{ID: ti.ID, Bucket: tag, Reason: "novelty-floor"})
				continue
			}
			candidates = append(candidates, ti.Item)
		}

		fit := b.Fit(candidates, budget)
		result.Items = append(result.Items, fit.Items...)
		result.TotalTokens += fit.TotalTokens
	}

	// actual <= budgetTotal + 5% holds by construction: each bucket's own
	// Fit call is capped at its percentage share of budgetTotal.
	return result
}

// tokenizeForNovelty splits s on non-alphanumerics, lowercases, and stems
// with porter2 — rup's documented resolution of spec.md §9's open question
// on novelty-filter tokenization: stemmed, no stopword list.
func tokenizeForNovelty(s string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tokens = append(tokens, porter2.Stem(strings.ToLower(cur.String())))
		cur.Reset()
	}

	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// tfidfNoveltyScores computes a [0,1]-normalized novelty score per item:
// the sum of IDF across its distinct stemmed tokens, divided by the score
// of the highest-scoring item in the set.
func tfidfNoveltyScores(items []TaggedItem) map[string]float64 {
	docTokens := make([]map[string]struct{}, len(items))
	df := make(map[string]int)

	for i, ti := range items {
		set := make(map[string]struct{})
		for _, tok := range tokenizeForNovelty(ti.Content) {
			set[tok] = struct{}{}
		}
		docTokens[i] = set
		for tok := range set {
			df[tok]++
		}
	}

	n := float64(len(items))
	raw := make(map[string]float64, len(items))
	maxScore := 0.0

	for i, ti := range items {
		score := 0.0
		for tok := range docTokens[i] {
			idf := math.Log(n / float64(df[tok]))
			if idf < 0 || math.IsInf(idf, 0) || math.IsNaN(idf) {
				idf = 0
			}
			score += idf
		}
		raw[ti.ID] = score
		if score > maxScore {
			maxScore = score
		}
	}

	out := make(map[string]float64, len(items))
	for id, score := range raw {
		if maxScore == 0 {
			out[id] = 0
			continue
		}
		out[id] = score / maxScore
	}

	return out
}
