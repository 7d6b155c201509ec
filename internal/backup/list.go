package backup

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// ListSessions reads the append-only session index, tolerating malformed or
// partially-written lines (the index can be mid-append if a session crashed
// between its two fsyncs).
func ListSessions(repoRoot string) ([]IndexEntry, error) {
	indexPath := filepath.Join(repoRoot, ".rup", "backups", "index.jsonl")
	f, err := os.Open(indexPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, rerrors.Internal("open index: %s", indexPath).WithCause(err)
	}
	defer f.Close()

	var out []IndexEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry IndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, rerrors.Internal("read index: %s", indexPath).WithCause(err)
	}
	return out, nil
}

// ReadSessionManifest loads a finalized session's manifest. It requires the
// session's DONE marker to be present, since a session without one may have
// crashed mid-finalize and its manifest.json cannot be trusted.
func ReadSessionManifest(repoRoot, sessionID string) (Manifest, error) {
	base := filepath.Join(repoRoot, ".rup", "backups", sessionID)
	donePath := filepath.Join(base, "DONE")
	if _, err := os.Stat(donePath); err != nil {
		return Manifest{}, rerrors.RepoIssue("session %s is incomplete (missing DONE)", sessionID)
	}

	manifestPath := filepath.Join(base, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Manifest{}, rerrors.Internal("read manifest: %s", manifestPath).WithCause(err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, rerrors.Internal("parse manifest: %s", manifestPath).WithCause(err)
	}
	return m, nil
}

// GC removes the directories of all but the keepNewest most recent sessions
// recorded in index.jsonl, returning the ids it removed. Age is taken from
// the index's append order, not filesystem mtime, so GC is deterministic
// given the index. Staging directories under tmp/ are not touched.
func GC(repoRoot string, keepNewest int) ([]string, error) {
	entries, err := ListSessions(repoRoot)
	if err != nil {
		return nil, err
	}
	if keepNewest < 0 {
		keepNewest = 0
	}
	if len(entries) <= keepNewest {
		return nil, nil
	}

	// index.jsonl is append-only in chronological order.
	toRemove := entries[:len(entries)-keepNewest]
	backupsDir := filepath.Join(repoRoot, ".rup", "backups")

	var removed []string
	for _, e := range toRemove {
		dir := filepath.Join(backupsDir, e.ID)
		if err := os.RemoveAll(dir); err != nil {
			return removed, rerrors.Internal("remove session dir: %s", dir).WithCause(err)
		}
		removed = append(removed, e.ID)
	}
	return removed, nil
}
