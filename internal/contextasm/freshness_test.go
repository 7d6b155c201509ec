package contextasm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsIndexStaleMissingIndex(t *testing.T) {
	root := t.TempDir()
	stale, err := IsIndexStale(root, filepath.Join(root, "symbols.jsonl"), 0)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsIndexStaleNewerSourceFile(t *testing.T) {
	root := t.TempDir()
	indexPath := filepath.Join(root, "symbols.jsonl")
	require.NoError(t, os.WriteFile(indexPath, []byte("{}"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(indexPath, old, old))

	srcPath := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(srcPath, []byte("package main"), 0o644))

	stale, err := IsIndexStale(root, indexPath, 0)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsIndexStaleFreshWhenIndexNewer(t *testing.T) {
	root := t.TempDir()
	srcPath := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(srcPath, []byte("package main"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(srcPath, old, old))

	indexPath := filepath.Join(root, "symbols.jsonl")
	require.NoError(t, os.WriteFile(indexPath, []byte("{}"), 0o644))

	stale, err := IsIndexStale(root, indexPath, 0)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestIsIndexStaleSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	indexPath := filepath.Join(root, "symbols.jsonl")
	require.NoError(t, os.WriteFile(indexPath, []byte("{}"), 0o644))

	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main"), 0o644))

	stale, err := IsIndexStale(root, indexPath, 0)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestAcquireRegenLockExclusive(t *testing.T) {
	root := t.TempDir()
	lockPath := filepath.Join(root, "regen.lock")

	release, err := AcquireRegenLock(lockPath)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, statErr := os.Stat(lockPath)
	require.NoError(t, statErr)

	release()
	_, statErr = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(statErr))
}
