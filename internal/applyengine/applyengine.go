// Package applyengine orchestrates a single apply invocation: it opens a
// Backup Session, checks staged files for unresolved conflict markers,
// dispatches to the Edit Engine, and renders a final ApplyReport.
package applyengine

import (
	"fmt"

	"github.com/standardbeagle/rup/internal/backup"
	"github.com/standardbeagle/rup/internal/conflict"
	"github.com/standardbeagle/rup/internal/editengine"
	"github.com/standardbeagle/rup/internal/editfmt"
	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/pkg/pathutil"

	"os"
)

// Engine identifies which apply backend produced a report. rup's CORE only
// implements Internal; the field exists so a future external-diff backend
// (spec.md §6, out of scope here) can report itself the same way.
type Engine string

const (
	EngineInternal Engine = "internal"
)

// Options configures one apply invocation.
type Options struct {
	// Force applies clean file blocks even when other blocks in the same
	// spec conflict; see editengine.Apply.
	Force bool
	// Backup enables a centralized Backup Session covering every file the
	// spec will modify. Disabling it is for callers that manage their own
	// backups (e.g. a dry-run preview).
	Backup bool
	// Operation and Args are recorded in the backup manifest for operator
	// auditing (e.g. Operation="apply", Args=os.Args[1:]).
	Operation string
	Args      []string
}

// Report is the result of one apply invocation.
type Report struct {
	AppliedFiles       []string
	Conflicts          []editengine.Conflict
	EngineUsed         Engine
	BackupSessionID    string
	BackupManifestPath string
	BackupFileCount    int
}

// Apply runs spec against the repository rooted at repoRoot: it backs up
// every file a FileBlock will modify (if opts.Backup), rejects any file
// block whose target still carries unresolved conflict markers, then
// dispatches to editengine.Apply. The backup session is always finalized
// (success = no conflicts) before Apply returns, even on partial failure.
func Apply(repoRoot string, spec editfmt.EditSpec, opts Options) (Report, error) {
	var mgr *backup.Manager
	if opts.Backup {
		m, err := backup.Begin(repoRoot, opts.Operation, string(EngineInternal), opts.Args)
		if err != nil {
			return Report{}, rerrors.Internal("begin backup session: %v", err).WithCause(err)
		}
		mgr = m
	}

	markerConflicts, err := checkConflictMarkers(repoRoot, spec)
	if err != nil {
		if mgr != nil {
			mgr.Abandon()
		}
		return Report{}, err
	}

	if mgr != nil {
		for _, block := range spec.FileBlocks {
			if len(block.Operations) == 0 {
				continue
			}
			rel, rerr := makeRelativeToRepo(block.Path, repoRoot)
			if rerr != nil {
				mgr.Abandon()
				return Report{}, rerr
			}
			if err := mgr.BackupFile(rel); err != nil {
				mgr.Abandon()
				return Report{}, rerrors.RepoIssue("backup file: %s", rel).WithFile(rel).WithCause(err)
			}
		}
	}

	// Blocks whose target carries conflict markers are never dispatched;
	// without Force, a marker conflict keeps every other block unwritten too.
	dispatch := spec
	if len(markerConflicts) > 0 {
		marked := make(map[string]bool, len(markerConflicts))
		for _, c := range markerConflicts {
			marked[c.File] = true
		}
		dispatch.FileBlocks = nil
		for _, block := range spec.FileBlocks {
			if opts.Force && !marked[block.Path] {
				dispatch.FileBlocks = append(dispatch.FileBlocks, block)
			}
		}
	}

	result, err := editengine.Apply(repoRoot, dispatch, opts.Force)
	if err != nil {
		if mgr != nil {
			mgr.Abandon()
		}
		return Report{}, err
	}

	conflicts := append([]editengine.Conflict{}, markerConflicts...)
	conflicts = append(conflicts, result.Conflicts...)

	report := Report{
		AppliedFiles: result.FilesWritten,
		Conflicts:    conflicts,
		EngineUsed:   EngineInternal,
	}

	if mgr != nil {
		success := len(conflicts) == 0
		if err := mgr.Finalize(success); err != nil {
			return report, rerrors.Internal("finalize backup session: %v", err).WithCause(err)
		}
		report.BackupSessionID = mgr.SessionID()
		report.BackupManifestPath = mgr.SessionDir() + string(os.PathSeparator) + "manifest.json"
		report.BackupFileCount = mgr.FileCount()
	}

	return report, nil
}

// checkConflictMarkers reads every file a FileBlock targets and reports a
// Conflicts-kind Conflict for any that still carry unresolved conflict
// markers, refusing to silently apply an edit over them.
func checkConflictMarkers(repoRoot string, spec editfmt.EditSpec) ([]editengine.Conflict, error) {
	var out []editengine.Conflict
	for _, block := range spec.FileBlocks {
		if len(block.Operations) == 0 {
			continue
		}
		full, err := resolveFull(repoRoot, block.Path)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		if conflict.HasConflicts(data) {
			markers := conflict.Detect(data)
			out = append(out, editengine.Conflict{
				File:      block.Path,
				Type:      editengine.ConflictUnresolvedMarkers,
				StartLine: markers[0].Line,
				EndLine:   markers[0].Line,
				Message:   fmt.Sprintf("unresolved conflict markers (%d found)", len(markers)),
			})
		}
	}
	return out, nil
}

func resolveFull(repoRoot, path string) (string, error) {
	rel, err := makeRelativeToRepo(path, repoRoot)
	if err != nil {
		return "", err
	}
	return repoRoot + string(os.PathSeparator) + rel, nil
}

// makeRelativeToRepo turns an absolute or repo-relative file path into a
// repo-relative path, enforcing the boundary that keeps backups (and
// conflict-marker reads) inside repoRoot.
func makeRelativeToRepo(path, repoRoot string) (string, error) {
	rel, err := pathutil.ValidateRepoRelative(path)
	if err == nil {
		return rel, nil
	}
	ok, werr := pathutil.WithinRoot(repoRoot, path)
	if werr != nil || !ok {
		return "", rerrors.RepoIssue("path outside repository: %s", path).WithFile(path)
	}
	return pathutil.ToRelative(path, repoRoot), nil
}
