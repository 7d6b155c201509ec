package symbolindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{"file":"src/lib.rs","lang":"rust","kind":"function","name":"parse_config","qualified_name":"lib::parse_config","byte_start":0,"byte_end":20,"start_line":1,"end_line":3,"visibility":"public"}
{"file":"src/lib.rs","lang":"rust","kind":"function","name":"parse_input","qualified_name":"lib::parse_input","byte_start":21,"byte_end":40,"start_line":5,"end_line":8,"visibility":"private"}
{"file":"src/other.rs","lang":"rust","kind":"struct","name":"Config","qualified_name":"other::Config","byte_start":0,"byte_end":10,"start_line":1,"end_line":2,"visibility":"public"}
`

func TestLoadAndLookupExactMatch(t *testing.T) {
	idx, err := LoadReader(strings.NewReader(fixture), "fixture")
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	results := idx.Lookup("parse_config", LookupOptions{Limit: 10})
	require.NotEmpty(t, results)
	assert.Equal(t, "parse_config", results[0].Symbol.Name)
	assert.Equal(t, 3, results[0].Semantic)
}

func TestByFileReturnsOnlyThatFilesSymbols(t *testing.T) {
	idx, err := LoadReader(strings.NewReader(fixture), "fixture")
	require.NoError(t, err)

	syms := idx.ByFile("src/lib.rs")
	require.Len(t, syms, 2)
	assert.Equal(t, "parse_config", syms[0].Name)
	assert.Equal(t, "parse_input", syms[1].Name)

	assert.Empty(t, idx.ByFile("src/missing.rs"))
}

func TestLookupPrefixMatch(t *testing.T) {
	idx, err := LoadReader(strings.NewReader(fixture), "fixture")
	require.NoError(t, err)

	results := idx.Lookup("parse", LookupOptions{Limit: 10})
	names := map[string]bool{}
	for _, r := range results {
		names[r.Symbol.Name] = true
	}
	assert.True(t, names["parse_config"])
	assert.True(t, names["parse_input"])
}

func TestLookupScopeAndProximity(t *testing.T) {
	idx, err := LoadReader(strings.NewReader(fixture), "fixture")
	require.NoError(t, err)

	results := idx.Lookup("parse", LookupOptions{
		Limit:      10,
		HasAnchor:  true,
		AnchorFile: "src/lib.rs",
		AnchorLine: 25,
	})
	require.NotEmpty(t, results)
	// parse_input (line 5) is within 20 lines of the anchor: proximity 2.
	// parse_config (line 1) is 24 lines away: proximity 1.
	top := results[0]
	assert.Equal(t, "parse_input", top.Symbol.Name)
}

func TestLookupMalformedLineReportsLineNumber(t *testing.T) {
	bad := `{"file":"a.rs","name":"x"}
not-json
`
	_, err := LoadReader(strings.NewReader(bad), "fixture")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture:2")
}

func TestLookupLimitTruncates(t *testing.T) {
	idx, err := LoadReader(strings.NewReader(fixture), "fixture")
	require.NoError(t, err)

	results := idx.Lookup("a", LookupOptions{Semantic: true, Limit: 1})
	assert.LessOrEqual(t, len(results), 1)
}
