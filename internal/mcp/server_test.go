package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rup/internal/backup"
	"github.com/standardbeagle/rup/internal/symbols"
)

func newTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rup"), 0o755))

	sym := symbols.Symbol{
		File:          "main.go",
		Lang:          "go",
		Kind:          symbols.KindFunction,
		Name:          "Run",
		QualifiedName: "Run",
		ByteStart:     0,
		ByteEnd:       20,
		StartLine:     1,
		EndLine:       3,
	}
	data, err := json.Marshal(sym)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".rup", "symbols.jsonl"), append(data, '\n'), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("func Run() {\n\treturn\n}\n"), 0o644))
	return root
}

func callArgs(t *testing.T, v any) *mcp.CallToolRequest {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: data}}
}

func TestNewBuildsServer(t *testing.T) {
	root := newTestRepo(t)
	s, err := New(root)
	require.NoError(t, err)
	assert.NotNil(t, s.server)
}

func TestHandleContextAssembleReturnsBudgetedOutput(t *testing.T) {
	root := newTestRepo(t)
	s, err := New(root)
	require.NoError(t, err)

	res, err := s.handleContextAssemble(context.Background(), callArgs(t, contextAssembleParams{
		Queries: []string{"Run"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Run")
}

func TestHandleContextAssembleRejectsEmptyQueries(t *testing.T) {
	root := newTestRepo(t)
	s, err := New(root)
	require.NoError(t, err)

	res, err := s.handleContextAssemble(context.Background(), callArgs(t, contextAssembleParams{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleBackupListOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	root := newTestRepo(t)
	for _, name := range []string{"a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	mgr1, err := backup.Begin(root, "apply", "internal", nil)
	require.NoError(t, err)
	require.NoError(t, mgr1.BackupFile("a.txt"))
	require.NoError(t, mgr1.Finalize(true))

	mgr2, err := backup.Begin(root, "apply", "internal", nil)
	require.NoError(t, err)
	require.NoError(t, mgr2.BackupFile("b.txt"))
	require.NoError(t, mgr2.Finalize(true))

	s, err := New(root)
	require.NoError(t, err)

	res, err := s.handleBackupList(context.Background(), callArgs(t, backupListParams{Limit: 1}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var entries []backup.IndexEntry
	text := res.Content[0].(*mcp.TextContent)
	require.NoError(t, json.Unmarshal([]byte(text.Text), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, mgr2.SessionID(), entries[0].ID)
}
