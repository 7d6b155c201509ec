package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWalkReturnsSortedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go")
	writeFile(t, root, "a.go")
	writeFile(t, root, "src/c.go")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go", "src/c.go"}, files)
}

func TestWalkSkipsGitAndRupDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD")
	writeFile(t, root, ".rup/backups/index.jsonl")
	writeFile(t, root, "main.go")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files)
}

func TestWalkSkipsHiddenUnlessIncluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden.go")
	writeFile(t, root, "visible.go")

	files, err := Walk(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"visible.go"}, files)

	files, err = Walk(root, Options{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden.go", "visible.go"}, files)
}

func TestWalkHonorsExtraIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go")
	writeFile(t, root, "vendor/skip.go")

	files, err := Walk(root, Options{ExtraIgnoreGlobs: []string{"vendor/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, files)
}

func TestWalkHonorsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "top.go")
	writeFile(t, root, "a/b/deep.go")

	files, err := Walk(root, Options{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.go"}, files)
}
