package piece

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdjacentOverlapping(t *testing.T) {
	in := []Piece{
		{File: "a.rs", StartLine: 10, EndLine: 20, Body: "l10\nl11\nl12\nl13\nl14\nl15\nl16\nl17\nl18\nl19\nl20"},
		{File: "a.rs", StartLine: 11, EndLine: 25, Body: "l11\nl12\nl13\nl14\nl15\nl16\nl17\nl18\nl19\nl20\nl21\nl22\nl23\nl24\nl25"},
	}

	out := Merge(in)
	require.Len(t, out, 1)
	assert.Equal(t, 10, out[0].StartLine)
	assert.Equal(t, 25, out[0].EndLine)
}

func TestMergeDisjointStaysSeparate(t *testing.T) {
	in := []Piece{
		{File: "a.rs", StartLine: 1, EndLine: 5, Body: "a"},
		{File: "a.rs", StartLine: 10, EndLine: 15, Body: "b"},
	}

	out := Merge(in)
	require.Len(t, out, 2)
	assert.True(t, out[0].EndLine+1 < out[1].StartLine)
}

func TestMergeDifferentFilesNeverMerge(t *testing.T) {
	in := []Piece{
		{File: "a.rs", StartLine: 1, EndLine: 5, Body: "a"},
		{File: "b.rs", StartLine: 1, EndLine: 5, Body: "b"},
	}

	out := Merge(in)
	require.Len(t, out, 2)
}

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil))
}
