package backup

import (
	"os"
	"path/filepath"

	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/pkg/pathutil"
)

// Restore copies every file recorded in session sessionID's manifest back
// over its original repo-relative location, undoing an apply. The session
// must be finalized (carry a DONE marker); restoring from a session that
// also recorded an empty Files list is a no-op, not an error.
func Restore(repoRoot, sessionID string) ([]string, error) {
	manifest, err := ReadSessionManifest(repoRoot, sessionID)
	if err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(repoRoot, ".rup", "backups", sessionID)

	var restored []string
	for _, fm := range manifest.Files {
		rel, err := pathutil.ValidateRepoRelative(fm.RelPath)
		if err != nil {
			return restored, rerrors.RepoIssue("invalid manifest path: %s", fm.RelPath).WithFile(fm.RelPath).WithCause(err)
		}

		backupPath := filepath.Join(sessionDir, rel)
		destPath := filepath.Join(repoRoot, fm.OriginalPath)

		if fm.Symlink {
			if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
				return restored, rerrors.Internal("remove existing symlink: %s", fm.OriginalPath).WithFile(fm.OriginalPath).WithCause(err)
			}
			if err := os.Symlink(fm.LinkTarget, destPath); err != nil {
				return restored, rerrors.Internal("restore symlink: %s", fm.OriginalPath).WithFile(fm.OriginalPath).WithCause(err)
			}
			restored = append(restored, fm.OriginalPath)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return restored, rerrors.Internal("create restore parent: %s", fm.OriginalPath).WithFile(fm.OriginalPath).WithCause(err)
		}
		if err := copyFile(backupPath, destPath); err != nil {
			return restored, rerrors.Internal("restore file: %s", fm.OriginalPath).WithFile(fm.OriginalPath).WithCause(err)
		}
		restored = append(restored, fm.OriginalPath)
	}
	return restored, nil
}
