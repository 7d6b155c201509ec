package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rup/internal/editfmt"
)

func reader(content string) FileReader {
	return func(path string) (string, error) { return content, nil }
}

func TestGenerateSimpleReplacePatch(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpReplace, StartLine: 2, EndLine: 2, OldContent: "line 2", NewContent: "modified line 2"},
		}},
	}}

	set, err := Generate(spec, DefaultConfig(), reader("line 1\nline 2\nline 3\n"))
	require.NoError(t, err)
	require.Len(t, set.FilePatches, 1)
	assert.Len(t, set.FilePatches[0].Hunks, 1)

	diff := RenderUnifiedDiff(set)
	assert.Contains(t, diff, "diff --git")
	assert.Contains(t, diff, "-line 2")
	assert.Contains(t, diff, "+modified line 2")
}

func TestGenerateInsertPatch(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpInsert, AtLine: 1, NewContent: "inserted line"},
		}},
	}}

	set, err := Generate(spec, DefaultConfig(), reader("line 1\nline 2\n"))
	require.NoError(t, err)
	diff := RenderUnifiedDiff(set)
	assert.Contains(t, diff, "+inserted line")
}

func TestGenerateRejectsGuardMismatch(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpReplace, StartLine: 1, EndLine: 1, GuardCID: "0000000000000000", NewContent: "x"},
		}},
	}}

	_, err := Generate(spec, DefaultConfig(), reader("line 1\n"))
	require.Error(t, err)
}

func TestMergeAdjacentHunks(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpReplace, StartLine: 2, EndLine: 2, OldContent: "b", NewContent: "B"},
			{Kind: editfmt.OpReplace, StartLine: 4, EndLine: 4, OldContent: "d", NewContent: "D"},
		}},
	}}

	cfg := DefaultConfig()
	set, err := Generate(spec, cfg, reader("a\nb\nc\nd\ne\n"))
	require.NoError(t, err)
	// Both edits fall within 2*context_lines of each other, so they merge
	// into a single hunk rather than staying as two separate ones.
	assert.Len(t, set.FilePatches[0].Hunks, 1)
}

func TestMergeAdjacentHunksDisabled(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpReplace, StartLine: 2, EndLine: 2, OldContent: "b", NewContent: "B"},
			{Kind: editfmt.OpReplace, StartLine: 4, EndLine: 4, OldContent: "d", NewContent: "D"},
		}},
	}}

	cfg := DefaultConfig()
	cfg.MergeAdjacent = false
	set, err := Generate(spec, cfg, reader("a\nb\nc\nd\ne\n"))
	require.NoError(t, err)
	assert.Len(t, set.FilePatches[0].Hunks, 2)
}

func TestRenderUnifiedDiffMetadataComment(t *testing.T) {
	spec := editfmt.EditSpec{FileBlocks: []editfmt.FileBlock{
		{Path: "a.go", Operations: []editfmt.Operation{
			{Kind: editfmt.OpDelete, StartLine: 1, EndLine: 1},
		}},
	}}

	set, err := Generate(spec, DefaultConfig(), reader("x\ny\n"))
	require.NoError(t, err)
	diff := RenderUnifiedDiff(set)
	assert.True(t, strings.HasPrefix(diff, "# RUP: CID=none CONTEXT=3 ENGINE=rup\n"))
}
