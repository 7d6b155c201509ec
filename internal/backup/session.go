// Package backup implements rup's crash-safe, session-scoped backup store: a
// mirrored-tree copy of edited files under .rup/backups/<session-id>, staged
// in a tmp directory and atomically renamed into place on finalize, with a
// journaled manifest, a DONE marker, and an append-only session index.
package backup

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/internal/logging"
	"github.com/standardbeagle/rup/internal/vcs"
	"github.com/standardbeagle/rup/pkg/pathutil"
	"lukechampine.com/blake3"
)

// FileMeta records one backed-up file's provenance in the session manifest.
type FileMeta struct {
	OriginalPath string `json:"original_path"` // repo-relative
	RelPath      string `json:"rel_path"`       // session-relative; mirrors repo tree
	SizeBytes    int64  `json:"size_bytes"`
	LastModified int64  `json:"last_modified"` // unix seconds, source file
	Checksum     string `json:"checksum"`       // "blake3:<hex>"
	Symlink      bool   `json:"symlink"`
	LinkTarget   string `json:"link_target,omitempty"`
}

// Manifest is the JSON document journaled to <session>/manifest.json.
type Manifest struct {
	ID            string        `json:"id"`
	Timestamp     string        `json:"timestamp"` // RFC3339 creation time
	ParentSession string        `json:"parent_session_id,omitempty"`
	Operation     string        `json:"operation"`
	Engine        string        `json:"engine"`
	EditSpecHash  string        `json:"edit_spec_hash,omitempty"`
	Git           *vcs.Snapshot `json:"git,omitempty"`
	Args          []string      `json:"args"`
	Success       bool          `json:"success"`
	LastUpdated   string        `json:"last_updated"`
	Files         []FileMeta    `json:"files"`
}

// IndexEntry is one line of the append-only .rup/backups/index.jsonl.
type IndexEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
	Files     int    `json:"files"`
	Engine    string `json:"engine"`
}

// Manager stages one backup session: files are copied into a tmp directory
// and the whole session is renamed into place atomically on Finalize.
type Manager struct {
	repoRoot        string
	sessionsDir     string // <root>/.rup/backups
	locksDir        string // <root>/.rup/locks
	sessionID       string
	sessionTmpDir   string // .../tmp/<id>
	sessionFinalDir string // .../backups/<id>
	manifest        Manifest
	finalized       bool
}

// Begin starts a new session under .rup/backups/tmp/<id>, creating the
// sessions/locks directories as needed.
func Begin(repoRoot, operation, engine string, args []string) (*Manager, error) {
	rupRoot := filepath.Join(repoRoot, ".rup")
	sessionsDir := filepath.Join(rupRoot, "backups")
	tmpSessionsDir := filepath.Join(sessionsDir, "tmp")
	locksDir := filepath.Join(rupRoot, "locks")

	for _, d := range []string{sessionsDir, tmpSessionsDir, locksDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, rerrors.Internal("create backup dir: %s", d).WithCause(err)
		}
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, rerrors.Internal("generate session id").WithCause(err)
	}

	sessionTmpDir := filepath.Join(tmpSessionsDir, id)
	sessionFinalDir := filepath.Join(sessionsDir, id)
	if err := os.MkdirAll(sessionTmpDir, 0o755); err != nil {
		return nil, rerrors.Internal("create session tmp dir: %s", sessionTmpDir).WithCause(err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	snap := vcs.CaptureSnapshot(repoRoot)

	return &Manager{
		repoRoot:        repoRoot,
		sessionsDir:     sessionsDir,
		locksDir:        locksDir,
		sessionID:       id,
		sessionTmpDir:   sessionTmpDir,
		sessionFinalDir: sessionFinalDir,
		manifest: Manifest{
			ID:          id,
			Timestamp:   now,
			Operation:   operation,
			Engine:      engine,
			Git:         &snap,
			Args:        args,
			LastUpdated: now,
		},
	}, nil
}

// SessionID returns the session's identifier.
func (m *Manager) SessionID() string { return m.sessionID }

// SessionDir returns the session's directory: the tmp staging path before
// Finalize, the final .rup/backups/<id> path after.
func (m *Manager) SessionDir() string {
	if m.finalized {
		return m.sessionFinalDir
	}
	return m.sessionTmpDir
}

// FileCount returns the number of files backed up so far.
func (m *Manager) FileCount() int { return len(m.manifest.Files) }

// BackupFile copies repo-relative relPath (resolved under repoRoot) into the
// session's tmp directory, preserving the repo's directory structure, and
// records its metadata in the manifest. Symlinks are followed for content.
func (m *Manager) BackupFile(relPath string) error {
	rel, err := pathutil.ValidateRepoRelative(relPath)
	if err != nil {
		return rerrors.RepoIssue("invalid backup path: %s", relPath).WithFile(relPath).WithCause(err)
	}

	sourcePath := filepath.Join(m.repoRoot, rel)
	backupPath := filepath.Join(m.sessionTmpDir, rel)

	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return rerrors.Internal("create backup parent for %s", rel).WithFile(rel).WithCause(err)
	}

	info, err := os.Lstat(sourcePath)
	if err != nil {
		return rerrors.RepoIssue("stat source: %s", rel).WithFile(rel).WithCause(err)
	}

	isSymlink := info.Mode()&os.ModeSymlink != 0
	if !isSymlink && !info.Mode().IsRegular() {
		return rerrors.RepoIssue("unsupported file type for backup: %s", rel).WithFile(rel)
	}

	var linkTarget string
	if isSymlink {
		linkTarget, err = os.Readlink(sourcePath)
		if err != nil {
			return rerrors.RepoIssue("readlink: %s", rel).WithFile(rel).WithCause(err)
		}
		resolved, err := filepath.EvalSymlinks(sourcePath)
		if err != nil {
			return rerrors.RepoIssue("resolve symlink target (broken?): %s", rel).WithFile(rel).WithCause(err)
		}
		if err := copyFile(resolved, backupPath); err != nil {
			return rerrors.Internal("copy target to backup: %s", rel).WithFile(rel).WithCause(err)
		}
	} else {
		if err := copyFile(sourcePath, backupPath); err != nil {
			return rerrors.Internal("copy file to backup: %s", rel).WithFile(rel).WithCause(err)
		}
	}

	backupInfo, err := os.Stat(backupPath)
	if err != nil {
		return rerrors.Internal("stat backup: %s", rel).WithFile(rel).WithCause(err)
	}

	checksum, err := streamBlake3(backupPath)
	if err != nil {
		return rerrors.Internal("checksum backup: %s", rel).WithFile(rel).WithCause(err)
	}

	m.manifest.Files = append(m.manifest.Files, FileMeta{
		OriginalPath: rel,
		RelPath:      rel,
		SizeBytes:    backupInfo.Size(),
		LastModified: info.ModTime().Unix(),
		Checksum:     checksum,
		Symlink:      isSymlink,
		LinkTarget:   linkTarget,
	})
	m.manifest.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Finalize journals the manifest, atomically renames the session into place,
// writes the DONE marker, and appends an index entry. Idempotent: a second
// call on an already-finalized Manager is a no-op.
func (m *Manager) Finalize(success bool) error {
	if m.finalized {
		return nil
	}

	m.manifest.Success = success
	m.manifest.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	manifestPath := filepath.Join(m.sessionTmpDir, "manifest.json")
	manifestTmp := manifestPath + ".tmp"
	data, err := json.MarshalIndent(m.manifest, "", "  ")
	if err != nil {
		return rerrors.Internal("serialize manifest").WithCause(err)
	}
	if err := os.WriteFile(manifestTmp, data, 0o644); err != nil {
		return rerrors.Internal("write manifest tmp: %s", manifestTmp).WithCause(err)
	}
	syncFile(manifestTmp)
	if err := os.Rename(manifestTmp, manifestPath); err != nil {
		return rerrors.Internal("rename manifest into place").WithCause(err)
	}
	syncDir(m.sessionTmpDir)

	if err := os.Rename(m.sessionTmpDir, m.sessionFinalDir); err != nil {
		return rerrors.Internal("rename session %s -> %s", m.sessionTmpDir, m.sessionFinalDir).WithCause(err)
	}
	syncDir(m.sessionsDir)

	donePath := filepath.Join(m.sessionFinalDir, "DONE")
	if err := os.WriteFile(donePath, nil, 0o644); err != nil {
		return rerrors.Internal("create DONE: %s", donePath).WithCause(err)
	}
	syncFile(donePath)
	syncDir(m.sessionFinalDir)

	m.finalized = true

	if err := m.appendToIndex(); err != nil {
		logging.Warnf("backup: append index for session %s: %v", m.sessionID, err)
	}
	return nil
}

// Abandon finalizes the session as failed if it has not already been
// finalized. Intended for deferred cleanup on an error path, mirroring the
// original implementation's best-effort finalize-on-drop.
func (m *Manager) Abandon() {
	if !m.finalized {
		_ = m.Finalize(false)
	}
}

func (m *Manager) appendToIndex() error {
	indexPath := filepath.Join(m.sessionsDir, "index.jsonl")
	lockPath := filepath.Join(m.locksDir, "backups.lock")

	guard, err := acquireLock(lockPath)
	if err != nil {
		return err
	}
	defer guard.release()

	entry := IndexEntry{
		ID:        m.manifest.ID,
		Timestamp: m.manifest.Timestamp,
		Success:   m.manifest.Success,
		Files:     len(m.manifest.Files),
		Engine:    m.manifest.Engine,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return rerrors.Internal("serialize index entry").WithCause(err)
	}

	f, err := os.OpenFile(indexPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return rerrors.Internal("open index: %s", indexPath).WithCause(err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return rerrors.Internal("append index").WithCause(err)
	}
	_ = f.Sync()
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func streamBlake3(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake3.New(32, nil)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("blake3:%x", h.Sum(nil)), nil
}

func syncFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}

// syncDir fsyncs dir so a prior rename into it survives a crash. Best
// effort; Windows does not expose a reliable directory fsync.
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}

const sessionIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func generateSessionID() (string, error) {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	suffix := make([]byte, 10)
	idx := make([]byte, 10)
	if _, err := rand.Read(idx); err != nil {
		return "", err
	}
	for i, b := range idx {
		suffix[i] = sessionIDAlphabet[int(b)%len(sessionIDAlphabet)]
	}
	return fmt.Sprintf("%s_%s", ts, suffix), nil
}
