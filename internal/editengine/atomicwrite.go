package editengine

import (
	"os"
	"path/filepath"
	"runtime"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

const defaultFilePerm os.FileMode = 0o644

// WriteAtomic writes content to path by creating a temp file in path's
// directory (falling back to the OS temp directory on permission/missing-dir
// errors), syncing it, preserving the destination's existing permissions
// (or defaultFilePerm for a new file), and atomically renaming it over path.
// On Unix, the parent directory is fsynced afterward so the rename is
// durable across a crash.
func WriteAtomic(path string, content []byte) error {
	perm := defaultFilePerm
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rup-tmp-*")
	if err != nil {
		tmp, err = os.CreateTemp("", ".rup-tmp-*")
		if err != nil {
			return rerrors.Internal("create temp file for %s", path).WithFile(path).WithCause(err)
		}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return rerrors.Internal("write temp file for %s", path).WithFile(path).WithCause(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return rerrors.Internal("sync temp file for %s", path).WithFile(path).WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return rerrors.Internal("close temp file for %s", path).WithFile(path).WithCause(err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return rerrors.Internal("chmod temp file for %s", path).WithFile(path).WithCause(err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return rerrors.Internal("rename temp file into place for %s", path).WithFile(path).WithCause(err)
	}

	if runtime.GOOS != "windows" {
		syncDir(dir)
	}

	return nil
}

// syncDir fsyncs dir so a prior rename into it survives a crash. Best
// effort: failures are ignored, matching the original's "fsync the parent
// directory" step, which is advisory hardening rather than a correctness
// requirement the caller can act on.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
