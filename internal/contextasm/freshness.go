package contextasm

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

var staleCheckSkipDirs = map[string]bool{
	".git": true, ".rup": true, "node_modules": true,
	"target": true, "vendor": true, "dist": true, "build": true,
}

// IsIndexStale reports whether any regular file under root (skipping
// well-known build directories, bounded to maxDepth directory levels below
// root) has a modification time newer than the symbol index at indexPath —
// spec.md §4.7.1's staleness check that gates scheduling an index
// regeneration. A missing index is always stale.
func IsIndexStale(root, indexPath string, maxDepth int) (bool, error) {
	info, err := os.Stat(indexPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, rerrors.RepoIssue("stat symbol index: %s", indexPath).WithFile(indexPath).WithCause(err)
	}
	indexModTime := info.ModTime()

	stale := false
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1

		if d.IsDir() {
			if staleCheckSkipDirs[d.Name()] || (maxDepth > 0 && depth > maxDepth) {
				return filepath.SkipDir
			}
			return nil
		}
		if maxDepth > 0 && depth > maxDepth {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if fi.ModTime().After(indexModTime) {
			stale = true
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return false, rerrors.RepoIssue("walk repository for staleness check: %s", root).WithCause(walkErr)
	}
	return stale, nil
}

const (
	regenLockPollInterval = 200 * time.Millisecond
	regenLockTimeout      = 10 * time.Second
)

// AcquireRegenLock acquires lockPath exclusively, polling every
// regenLockPollInterval until regenLockTimeout elapses, per spec.md §4.7.1's
// "single-writer lockfile with poll/timeout (200 ms/10 s)". Unlike the
// Backup Session Manager's lock, a regeneration lock is not reclaimed from a
// stale holder: a regeneration is expected to finish well inside the
// timeout, so exceeding it is a genuine, classified error (spec.md §5).
// On success, the caller must call the returned release func when done.
func AcquireRegenLock(lockPath string) (release func(), err error) {
	deadline := time.Now().Add(regenLockTimeout)
	for {
		f, createErr := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if createErr == nil {
			return func() {
				f.Close()
				_ = os.Remove(lockPath)
			}, nil
		}
		if !os.IsExist(createErr) {
			return nil, rerrors.Internal("acquire index regen lock: %s", lockPath).WithCause(createErr)
		}
		if time.Now().After(deadline) {
			return nil, rerrors.RepoIssue("index regen lock timed out: %s", lockPath).WithRecoverable(true)
		}
		time.Sleep(regenLockPollInterval)
	}
}
