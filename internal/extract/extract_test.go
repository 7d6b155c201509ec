package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rup/internal/symbols"
)

func TestExtractGoFunctionsAndMethods(t *testing.T) {
	src := []byte(`package demo

func Public() {}

func private() {}

type Thing struct{}

func (t Thing) Method() {}
`)

	e := New()
	syms, err := e.Extract(src, "demo.go")
	require.NoError(t, err)
	require.NotEmpty(t, syms)

	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
		assert.True(t, s.Valid())
	}
	assert.Contains(t, names, "Public")
	assert.Contains(t, names, "private")
	assert.Contains(t, names, "Method")

	for _, s := range syms {
		if s.Name == "Public" {
			assert.Equal(t, symbols.VisibilityPublic, s.Visibility)
		}
		if s.Name == "private" {
			assert.Equal(t, symbols.VisibilityPrivate, s.Visibility)
		}
	}
}

func TestExtractUnsupportedExtensionReturnsEmpty(t *testing.T) {
	e := New()
	syms, err := e.Extract([]byte("whatever"), "file.unknownlang")
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestExtractPostprocessIsDeterministic(t *testing.T) {
	src := []byte(`package demo

func B() {}

func A() {}
`)
	e := New()
	syms, err := e.Extract(src, "demo.go")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.True(t, syms[0].StartLine <= syms[1].StartLine)
}
