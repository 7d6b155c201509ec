package backup

import (
	"fmt"
	"os"
	"time"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

const staleLockAge = 60 * time.Second

// lockGuard holds an exclusively-created lock file; release removes it.
type lockGuard struct {
	path string
	file *os.File
}

func (g *lockGuard) release() {
	_ = g.file.Sync()
	g.file.Close()
	_ = os.Remove(g.path)
}

// acquireLock creates lockPath exclusively (O_CREATE|O_EXCL). If the lock
// already exists and is older than staleLockAge, it is treated as
// abandoned (e.g. the prior process crashed): it is removed and creation is
// retried once. Any other contention returns a recoverable error.
func acquireLock(lockPath string) (*lockGuard, error) {
	f, err := tryCreateLock(lockPath)
	if err == nil {
		return &lockGuard{path: lockPath, file: f}, nil
	}
	if !os.IsExist(err) {
		return nil, rerrors.Internal("acquire lock: %s", lockPath).WithCause(err)
	}

	info, statErr := os.Stat(lockPath)
	if statErr == nil && time.Since(info.ModTime()) > staleLockAge {
		if removeErr := os.Remove(lockPath); removeErr == nil {
			f, err := tryCreateLock(lockPath)
			if err == nil {
				return &lockGuard{path: lockPath, file: f}, nil
			}
		}
	}

	return nil, rerrors.RepoIssue("acquire lock: %s", lockPath).WithCause(err).WithRecoverable(true)
}

func tryCreateLock(lockPath string) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "pid=%d\n", os.Getpid())
	_ = f.Sync()
	return f, nil
}
