package editengine

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/rup/internal/editfmt"
	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/pkg/pathutil"
)

// Report summarizes one Apply invocation.
type Report struct {
	FilesWritten []string
	Conflicts    []Conflict
}

// Apply validates every FileBlock in spec against its current content under
// root, then writes the files whose operations all validate. With force
// false (the default), any conflict anywhere aborts the entire apply and no
// file is written. With force true, files that validate cleanly are written
// even if other files in the same spec have conflicts.
func Apply(root string, spec editfmt.EditSpec, force bool) (Report, error) {
	type prepared struct {
		path    string
		content string
		block   editfmt.FileBlock
	}

	var (
		report Report
		preps  []prepared
	)

	for _, block := range spec.FileBlocks {
		rel, err := pathutil.ValidateRepoRelative(block.Path)
		var full string
		if err != nil {
			if !filepath.IsAbs(block.Path) {
				return Report{}, rerrors.RepoIssue("path outside repository: %s", block.Path).WithFile(block.Path)
			}
			ok, werr := pathutil.WithinRoot(root, block.Path)
			if werr != nil || !ok {
				return Report{}, rerrors.RepoIssue("path outside repository: %s", block.Path).WithFile(block.Path)
			}
			full = filepath.Clean(block.Path)
		} else {
			full = filepath.Join(root, rel)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return Report{}, rerrors.RepoIssue("read file: %s", block.Path).WithFile(block.Path).WithCause(err)
		}

		conflicts := ValidateFileBlock(string(data), block)
		if len(conflicts) > 0 {
			// Recorded regardless of force: with force=false the early
			// return below discards any already-gathered preps so nothing
			// is written; with force=true this file is simply skipped.
			report.Conflicts = append(report.Conflicts, conflicts...)
			continue
		}

		preps = append(preps, prepared{path: full, content: string(data), block: block})
	}

	if len(report.Conflicts) > 0 && !force {
		return report, nil
	}

	for _, p := range preps {
		newContent := ApplyFileBlock(p.content, p.block)
		if err := WriteAtomic(p.path, []byte(newContent)); err != nil {
			return report, err
		}
		report.FilesWritten = append(report.FilesWritten, p.block.Path)
	}

	return report, nil
}
