package contextasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rup/internal/symbolindex"
	"github.com/standardbeagle/rup/internal/tokenizer"
)

// wordTokenizer is a deterministic stand-in tokenizer for tests: one token
// per whitespace-separated word.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	return make([]int, len(strings.Fields(text)))
}
func (wordTokenizer) Decode(ids []int) string { return strings.Repeat("w ", len(ids)) }
func (wordTokenizer) Count(text string) int   { return len(strings.Fields(text)) }
func (wordTokenizer) Encoding() string        { return "word-test" }

var _ tokenizer.Tokenizer = wordTokenizer{}

const fixtureIndex = `{"file":"src/lib.rs","lang":"rust","kind":"function","name":"parse_config","qualified_name":"lib::parse_config","byte_start":0,"byte_end":40,"start_line":1,"end_line":3,"visibility":"public"}
{"file":"src/lib.rs","lang":"rust","kind":"function","name":"parse_input","qualified_name":"lib::parse_input","byte_start":41,"byte_end":80,"start_line":5,"end_line":8,"visibility":"private"}
{"file":"src/other.rs","lang":"rust","kind":"struct","name":"Config","qualified_name":"other::Config","byte_start":0,"byte_end":30,"start_line":1,"end_line":2,"visibility":"public"}
`

func fixtureFiles() FileReader {
	files := map[string]string{
		"src/lib.rs":   "fn parse_config() {\n    todo!()\n}\n\nfn parse_input() {\n    todo!()\n    todo!()\n}\n",
		"src/other.rs": "struct Config {\n}\n",
	}
	return func(path string) (string, error) {
		if v, ok := files[path]; ok {
			return v, nil
		}
		return "", assert.AnError
	}
}

func loadFixtureIndex(t *testing.T) *symbolindex.Index {
	t.Helper()
	idx, err := symbolindex.LoadReader(strings.NewReader(fixtureIndex), "fixture")
	require.NoError(t, err)
	return idx
}

func TestAssembleNoSymbolsReturnsErrorState(t *testing.T) {
	idx, err := symbolindex.LoadReader(strings.NewReader(""), "empty")
	require.NoError(t, err)

	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{Tier: TierA})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, "no_symbols", out.Reason)
}

func TestAssembleNoMatchesReturnsErrorState(t *testing.T) {
	idx := loadFixtureIndex(t)

	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{
		Tier:    TierA,
		Queries: []string{"nonexistent_symbol_xyz"},
	})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, "no_matches", out.Reason)
}

func TestAssembleSimpleQueryProducesItems(t *testing.T) {
	idx := loadFixtureIndex(t)

	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{
		Tier:    TierB,
		Queries: []string{"parse_config"},
	})
	require.NoError(t, err)
	require.True(t, out.OK)
	require.NotEmpty(t, out.Items)

	var sawTemplate, sawPiece bool
	for _, it := range out.Items {
		if it.ID == templateID {
			sawTemplate = true
		}
		if strings.Contains(it.Content, "parse_config") {
			sawPiece = true
		}
	}
	assert.True(t, sawTemplate)
	assert.True(t, sawPiece)
}

func TestAssembleRespectsTierBudget(t *testing.T) {
	idx := loadFixtureIndex(t)

	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{
		Tier:    TierA,
		Queries: []string{"parse_config", "parse_input", "Config"},
	})
	require.NoError(t, err)
	require.True(t, out.OK)
	assert.LessOrEqual(t, out.TotalTokens, out.Budget)
}

func TestAssembleAnchorFilePiecesRankFirst(t *testing.T) {
	idx := loadFixtureIndex(t)

	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{
		Tier:       TierB,
		Queries:    []string{"parse_config", "Config"},
		AnchorFile: "src/other.rs",
		HasAnchor:  true,
	})
	require.NoError(t, err)
	require.True(t, out.OK)

	var idx0 int = -1
	for i, it := range out.Items {
		if it.ID != templateID {
			idx0 = i
			break
		}
	}
	require.GreaterOrEqual(t, idx0, 0)
	assert.Contains(t, out.Items[idx0].ID, "src/other.rs")
}

func TestAssembleJSONOutputIsDeterministic(t *testing.T) {
	idx := loadFixtureIndex(t)
	opts := Options{Model: "cl100k_base", Tier: TierB, Queries: []string{"parse_config"}}

	out1, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), opts)
	require.NoError(t, err)
	out2, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), opts)
	require.NoError(t, err)

	b1, err := out1.RenderJSON()
	require.NoError(t, err)
	b2, err := out2.RenderJSON()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Contains(t, string(b1), `"model":"cl100k_base"`)
}

func TestRenderTextConcatenatesInOrder(t *testing.T) {
	idx := loadFixtureIndex(t)
	out, err := Assemble(idx, wordTokenizer{}, fixtureFiles(), Options{Tier: TierB, Queries: []string{"parse_config"}})
	require.NoError(t, err)
	require.True(t, out.OK)

	text := out.RenderText()
	assert.Contains(t, text, "parse_config")
}
