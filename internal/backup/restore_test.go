package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreOverwritesOriginalFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("original"), 0o644))

	mgr, err := Begin(root, "apply", "internal", nil)
	require.NoError(t, err)
	require.NoError(t, mgr.BackupFile("a.txt"))
	require.NoError(t, mgr.Finalize(true))

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("modified"), 0o644))

	restored, err := Restore(root, mgr.SessionID())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, restored)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestRestoreRequiresFinalizedSession(t *testing.T) {
	root := t.TempDir()
	_, err := Restore(root, "nonexistent-session")
	require.Error(t, err)
}
