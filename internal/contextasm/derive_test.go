package contextasm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rup/internal/symbolindex"
)

func TestExpandTraitResolve(t *testing.T) {
	got := ExpandTraitResolve("Shape::area")
	assert.Equal(t, []string{"trait Shape", "impl Shape for", "Shape::area"}, got)
}

func TestExpandTraitResolveWithoutSeparatorReturnsInputUnchanged(t *testing.T) {
	got := ExpandTraitResolve("justaname")
	assert.Equal(t, []string{"justaname"}, got)
}

const callgraphFixture = `{"file":"src/a.rs","lang":"rust","kind":"function","name":"outer","qualified_name":"a::outer","byte_start":0,"byte_end":10,"start_line":1,"end_line":4,"visibility":"public"}
{"file":"src/b.rs","lang":"rust","kind":"function","name":"inner","qualified_name":"b::inner","byte_start":0,"byte_end":10,"start_line":10,"end_line":14,"visibility":"public"}
`

func callgraphFiles() FileReader {
	files := map[string]string{
		"src/a.rs": "fn outer() {\n    inner();\n    helper_not_indexed();\n}\n",
		"src/b.rs": strings.Repeat("\n", 9) + "fn inner() {\n    leaf();\n}\n",
	}
	return func(path string) (string, error) {
		if v, ok := files[path]; ok {
			return v, nil
		}
		return "", assert.AnError
	}
}

func TestCallGraphHopsFindsDirectCallee(t *testing.T) {
	idx, err := symbolindex.LoadReader(strings.NewReader(callgraphFixture), "fixture")
	require.NoError(t, err)

	hops := CallGraphHops(idx, callgraphFiles(), []string{"outer"})
	assert.Equal(t, 0, hops["outer"])
	assert.Equal(t, 1, hops["inner"])
}

func TestOwnerFunctionFindsEnclosingSpan(t *testing.T) {
	idx, err := symbolindex.LoadReader(strings.NewReader(callgraphFixture), "fixture")
	require.NoError(t, err)

	owner, ok := OwnerFunction(idx, "src/a.rs", 2)
	require.True(t, ok)
	assert.Equal(t, "outer", owner.Name)

	_, ok = OwnerFunction(idx, "src/a.rs", 99)
	assert.False(t, ok)
}
