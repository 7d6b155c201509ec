package editfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleReplace(t *testing.T) {
	src := "FILE: lib.rs\n" +
		"REPLACE lines 2-2:\n" +
		"OLD:\n" +
		"```\n" +
		"b\n" +
		"```\n" +
		"NEW:\n" +
		"```\n" +
		"B\n" +
		"```\n"

	spec, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, spec.FileBlocks, 1)
	require.Len(t, spec.FileBlocks[0].Operations, 1)

	op := spec.FileBlocks[0].Operations[0]
	assert.Equal(t, OpReplace, op.Kind)
	assert.Equal(t, 2, op.StartLine)
	assert.Equal(t, 2, op.EndLine)
	assert.Equal(t, "b", op.OldContent)
	assert.Equal(t, "B", op.NewContent)
}

func TestParseGuardCID(t *testing.T) {
	src := "FILE: lib.rs\n" +
		"GUARD-CID: 0000000000000000\n" +
		"REPLACE lines 2-2:\n" +
		"OLD:\n" +
		"```\nb\n```\n" +
		"NEW:\n" +
		"```\nB\n```\n"

	spec, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000", spec.FileBlocks[0].Operations[0].GuardCID)
}

func TestParseInsertAndDelete(t *testing.T) {
	src := "FILE: lib.rs\n" +
		"INSERT at 0:\n" +
		"NEW:\n```\nheader\n```\n" +
		"DELETE lines 5-7\n"

	spec, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, spec.FileBlocks[0].Operations, 2)
	assert.Equal(t, OpInsert, spec.FileBlocks[0].Operations[0].Kind)
	assert.Equal(t, 0, spec.FileBlocks[0].Operations[0].AtLine)
	assert.Equal(t, OpDelete, spec.FileBlocks[0].Operations[1].Kind)
	assert.Equal(t, 5, spec.FileBlocks[0].Operations[1].StartLine)
	assert.Equal(t, 7, spec.FileBlocks[0].Operations[1].EndLine)
}

func TestParseLongerFence(t *testing.T) {
	src := "FILE: lib.rs\n" +
		"INSERT at 1:\n" +
		"NEW:\n" +
		"````\n" +
		"```nested```\n" +
		"````\n"

	spec, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "```nested```", spec.FileBlocks[0].Operations[0].NewContent)
}

func TestParseUnterminatedFence(t *testing.T) {
	src := "FILE: lib.rs\nINSERT at 1:\nNEW:\n```\nunterminated\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseUnknownDirective(t *testing.T) {
	src := "FILE: lib.rs\nBOGUS lines 1-1\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseBlankLinesAndCommentsSkipped(t *testing.T) {
	src := "# a comment\n\nFILE: lib.rs\n\n# another\nDELETE lines 1-1\n"
	spec, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, spec.FileBlocks[0].Operations, 1)
}
