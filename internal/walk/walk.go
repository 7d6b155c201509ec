// Package walk implements rup's default FileWalker: a deterministic,
// sorted directory walk over a repository root, filtered by caller-supplied
// ignore globs. .gitignore files are not read.
package walk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// defaultIgnoreDirs are always skipped regardless of extra_ignore_globs,
// matching what a repo-aware walk should never descend into.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	".rup":         true,
	"node_modules": true,
}

// Options configures Walk, matching spec.md §6.6's FileWalker signature.
type Options struct {
	ExtraIgnoreGlobs []string
	IncludeHidden    bool
	FollowSymlinks   bool
	MaxDepth         int // 0 = unlimited
}

// Walk returns a sorted, deterministic list of regular-file repo-relative
// paths under root, honoring .gitignore-style extra ignore globs.
func Walk(root string, opts Options) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		base := d.Name()
		if !opts.IncludeHidden && strings.HasPrefix(base, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if defaultIgnoreDirs[base] {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > opts.MaxDepth {
				return filepath.SkipDir
			}
			if matchesAny(opts.ExtraIgnoreGlobs, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if info.Mode()&os.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		if matchesAny(opts.ExtraIgnoreGlobs, rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, rerrors.RepoIssue("walk %s", root).WithFile(root).WithCause(err)
	}

	sort.Strings(files)
	return files, nil
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
