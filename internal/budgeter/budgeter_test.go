package budgeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer is a deterministic stand-in tokenizer for unit tests: each
// whitespace-separated word is one token, so expected counts are obvious
// without depending on a real BPE vocabulary.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	ids := make([]int, 0)
	word := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if inWord {
				ids = append(ids, word)
				word++
				inWord = false
			}
			continue
		}
		inWord = true
	}
	if inWord {
		ids = append(ids, word)
	}
	return ids
}

func (wordTokenizer) Decode(ids []int) string {
	out := ""
	for i := range ids {
		if i > 0 {
			out += " "
		}
		out += "w"
	}
	return out
}

func (wordTokenizer) Count(text string) int { return len(wordTokenizer{}.Encode(text)) }

func (wordTokenizer) Encoding() string { return "word-test" }

func TestFitDeterministicTieBreak(t *testing.T) {
	b := New(wordTokenizer{})

	items := []Item{
		{ID: "i3:1-10", Content: "a b c d e f g h i j", Priority: Medium()},
		{ID: "i1:1-10", Content: "a b c d e f g h i j", Priority: Medium()},
		{ID: "i2:1-10", Content: "a b c d e f g h i j", Priority: Medium()},
	}

	result := b.Fit(items, 20)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "i1:1-10", result.Items[0].ID)
	assert.Equal(t, "i2:1-10", result.Items[1].ID)
}

func TestFitReservesHardItems(t *testing.T) {
	b := New(wordTokenizer{})

	items := []Item{
		{ID: "hard", Content: "a b c d e f g h i j", Priority: Low(), Hard: true, MinTokens: 3},
		{ID: "soft", Content: "a b c", Priority: High()},
	}

	result := b.Fit(items, 6)
	require.Len(t, result.Items, 2)

	ids := map[string]bool{}
	for _, it := range result.Items {
		ids[it.ID] = true
	}
	assert.True(t, ids["hard"])
	assert.True(t, ids["soft"])
	assert.LessOrEqual(t, result.TotalTokens, 6)
}

func TestFitNeverExceedsBudget(t *testing.T) {
	b := New(wordTokenizer{})

	items := []Item{
		{ID: "a", Content: "a b c d e", Priority: High()},
		{ID: "b", Content: "a b c d e", Priority: Medium()},
		{ID: "c", Content: "a b c d e", Priority: Low()},
	}

	result := b.Fit(items, 7)
	assert.LessOrEqual(t, result.TotalTokens, 7)
}

func TestFitWithDedupeKeepsOneSurvivorPerCluster(t *testing.T) {
	b := New(wordTokenizer{})

	items := []Item{
		{ID: "dup-a", Content: "x\ny\nz", Priority: Low()},
		{ID: "dup-b", Content: "x\ny\nz", Priority: High()},
		{ID: "unique", Content: "p\nq\nr", Priority: Medium()},
	}

	result := b.FitWithDedupe(items, 100, DedupeConfig{JaccardThreshold: 0.8})

	ids := map[string]bool{}
	for _, it := range result.Items {
		ids[it.ID] = true
	}
	assert.True(t, ids["dup-b"], "higher priority duplicate should survive")
	assert.False(t, ids["dup-a"])
	assert.True(t, ids["unique"])
}

func TestParseBucketCaps(t *testing.T) {
	caps, err := ParseBucketCaps("code=60,interfaces=20,tests=20")
	require.NoError(t, err)
	assert.Equal(t, 60, caps.Code)
	assert.Equal(t, 20, caps.Interfaces)
	assert.Equal(t, 20, caps.Tests)

	_, err = ParseBucketCaps("code=60,interfaces=60")
	assert.Error(t, err)
}

func TestFitWithBucketsRespectsCaps(t *testing.T) {
	b := New(wordTokenizer{})
	caps := BucketCaps{Code: 50, Interfaces: 30, Tests: 20}

	items := []TaggedItem{
		{Item: Item{ID: "c1", Content: "a b c d e f g h i j", Priority: Medium()}, Tags: map[SpanTag]bool{TagCode: true}},
		{Item: Item{ID: "if1", Content: "a b c d e f g h i j", Priority: Medium()}, Tags: map[SpanTag]bool{TagInterface: true}},
		{Item: Item{ID: "t1", Content: "a b c d e f g h i j", Priority: Medium()}, Tags: map[SpanTag]bool{TagTest: true}},
	}

	result := b.FitWithBuckets(items, caps, 20, nil)
	assert.LessOrEqual(t, result.TotalTokens, 20+1) // small integer-division slack
}
