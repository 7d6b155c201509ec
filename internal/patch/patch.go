// Package patch renders an applied EditSpec as a unified diff: one FilePatch
// per file, each a sorted, optionally-merged sequence of context-bounded
// hunks, suitable for `git apply` or human review.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/rup/internal/cidhash"
	"github.com/standardbeagle/rup/internal/editfmt"
	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// HunkLineKind tags one rendered line within a Hunk.
type HunkLineKind int

const (
	LineContext HunkLineKind = iota
	LineRemove
	LineAdd
)

// HunkLine is one line of a Hunk, tagged with how it renders in the diff.
type HunkLine struct {
	Kind    HunkLineKind
	Content string
}

// Hunk is one contiguous unified-diff hunk.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []HunkLine
}

// Metadata carries traceability information rendered as a leading comment.
type Metadata struct {
	SourceCID    string // guard of the first Replace that has one; empty if none has
	ContextLines int
	Engine       string
}

// FilePatch is the complete patch for one file.
type FilePatch struct {
	Path     string
	Hunks    []Hunk
	Metadata Metadata
}

// Set is a complete collection of per-file patches.
type Set struct {
	FilePatches []FilePatch
}

// Config controls hunk generation.
type Config struct {
	ContextLines   int
	ValidateGuards bool
	MergeAdjacent  bool
}

// DefaultConfig matches the original tool's defaults: 3 lines of context,
// guard validation on, adjacent hunks merged.
func DefaultConfig() Config {
	return Config{ContextLines: 3, ValidateGuards: true, MergeAdjacent: true}
}

// FileReader abstracts reading a file's current content, so callers can
// supply an already-loaded in-memory view instead of touching disk again.
type FileReader func(path string) (string, error)

// Generate converts an EditSpec into a Set of unified-diff patches, one per
// file block, reading each file's current content via read.
func Generate(spec editfmt.EditSpec, cfg Config, read FileReader) (Set, error) {
	var set Set

	for _, block := range spec.FileBlocks {
		fp, err := generateFilePatch(block, cfg, read)
		if err != nil {
			return Set{}, rerrors.Internal("generate patch for %s", block.Path).WithFile(block.Path).WithCause(err)
		}
		set.FilePatches = append(set.FilePatches, fp)
	}

	return set, nil
}

func generateFilePatch(block editfmt.FileBlock, cfg Config, read FileReader) (FilePatch, error) {
	content, err := read(block.Path)
	if err != nil {
		return FilePatch{}, err
	}
	fileLines := strings.Split(content, "\n")
	if len(fileLines) > 0 && fileLines[len(fileLines)-1] == "" && strings.HasSuffix(content, "\n") {
		fileLines = fileLines[:len(fileLines)-1]
	}

	hunks := make([]Hunk, 0, len(block.Operations))
	for _, op := range block.Operations {
		h, err := operationToHunk(fileLines, op, cfg)
		if err != nil {
			return FilePatch{}, err
		}
		hunks = append(hunks, h)
	}

	if cfg.MergeAdjacent {
		hunks = mergeAdjacentHunks(hunks, cfg.ContextLines)
	}

	sort.Slice(hunks, func(i, j int) bool { return hunks[i].OldStart < hunks[j].OldStart })

	var sourceCID string
	for _, op := range block.Operations {
		if op.Kind == editfmt.OpReplace && op.GuardCID != "" {
			sourceCID = op.GuardCID
			break
		}
	}

	return FilePatch{
		Path:  block.Path,
		Hunks: hunks,
		Metadata: Metadata{
			SourceCID:    sourceCID,
			ContextLines: cfg.ContextLines,
			Engine:       "rup",
		},
	}, nil
}

func clampMin1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func operationToHunk(fileLines []string, op editfmt.Operation, cfg Config) (Hunk, error) {
	if cfg.ValidateGuards {
		if err := validateOperationContent(fileLines, op); err != nil {
			return Hunk{}, err
		}
	}

	switch op.Kind {
	case editfmt.OpReplace:
		return replaceHunk(fileLines, op, cfg), nil
	case editfmt.OpInsert:
		return insertHunk(fileLines, op, cfg), nil
	case editfmt.OpDelete:
		return deleteHunk(fileLines, op, cfg), nil
	default:
		return Hunk{}, fmt.Errorf("unknown operation kind %v", op.Kind)
	}
}

func replaceHunk(fileLines []string, op editfmt.Operation, cfg Config) Hunk {
	oldStart, oldEnd := op.StartLine, op.EndLine
	contextStart := clampMin1(oldStart - cfg.ContextLines)
	contextEnd := min(oldEnd+cfg.ContextLines, len(fileLines))

	var lines []HunkLine
	for ln := contextStart; ln < oldStart; ln++ {
		lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
	}
	for ln := oldStart; ln <= oldEnd; ln++ {
		lines = append(lines, HunkLine{LineRemove, fileLines[ln-1]})
	}
	newLines := splitNonEmpty(op.NewContent)
	for _, nl := range newLines {
		lines = append(lines, HunkLine{LineAdd, nl})
	}
	for ln := oldEnd + 1; ln <= contextEnd; ln++ {
		lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
	}

	leadCount := oldStart - contextStart
	trailCount := contextEnd - oldEnd
	if trailCount < 0 {
		trailCount = 0
	}

	return Hunk{
		OldStart: contextStart,
		OldCount: min(contextEnd-contextStart+1, len(fileLines)-contextStart+1),
		NewStart: contextStart,
		NewCount: leadCount + len(newLines) + trailCount,
		Lines:    lines,
	}
}

func insertHunk(fileLines []string, op editfmt.Operation, cfg Config) Hunk {
	pos := op.AtLine
	contextStart := clampMin1(pos - cfg.ContextLines)
	contextEnd := min(pos+cfg.ContextLines, len(fileLines))

	var lines []HunkLine
	upper := pos
	if upper > len(fileLines) {
		upper = len(fileLines)
	}
	for ln := contextStart; ln <= upper; ln++ {
		if ln > 0 && ln <= len(fileLines) {
			lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
		}
	}
	newLines := splitNonEmpty(op.NewContent)
	for _, nl := range newLines {
		lines = append(lines, HunkLine{LineAdd, nl})
	}
	for ln := pos + 1; ln <= contextEnd; ln++ {
		lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
	}

	return Hunk{
		OldStart: contextStart,
		OldCount: contextEnd - contextStart + 1,
		NewStart: contextStart,
		NewCount: (contextEnd - contextStart + 1) + len(newLines),
		Lines:    lines,
	}
}

func deleteHunk(fileLines []string, op editfmt.Operation, cfg Config) Hunk {
	start, end := op.StartLine, op.EndLine
	deleteCount := end - start + 1
	contextStart := clampMin1(start - cfg.ContextLines)
	contextEnd := min(end+cfg.ContextLines, len(fileLines))

	var lines []HunkLine
	for ln := contextStart; ln < start; ln++ {
		lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
	}
	for ln := start; ln <= end; ln++ {
		lines = append(lines, HunkLine{LineRemove, fileLines[ln-1]})
	}
	for ln := end + 1; ln <= contextEnd; ln++ {
		lines = append(lines, HunkLine{LineContext, fileLines[ln-1]})
	}

	return Hunk{
		OldStart: contextStart,
		OldCount: contextEnd - contextStart + 1,
		NewStart: contextStart,
		NewCount: (contextEnd - contextStart + 1) - deleteCount,
		Lines:    lines,
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// validateOperationContent re-checks Replace guards against fileLines, the
// same comparison editengine.ValidateFileBlock performs, so a patch can be
// generated and sanity-checked independently of an Apply call.
func validateOperationContent(fileLines []string, op editfmt.Operation) error {
	if op.Kind != editfmt.OpReplace {
		return nil
	}
	if op.StartLine < 1 || op.EndLine > len(fileLines) || op.StartLine > op.EndLine {
		return fmt.Errorf("span %d-%d outside file of %d lines", op.StartLine, op.EndLine, len(fileLines))
	}
	actual := strings.Join(fileLines[op.StartLine-1:op.EndLine], "\n")

	if op.GuardCID != "" {
		actualCID := cidhash.CID(actual)
		if !strings.EqualFold(actualCID, op.GuardCID) {
			return fmt.Errorf("content mismatch: expected CID %s, got %s", op.GuardCID, actualCID)
		}
		return nil
	}

	if cidhash.Normalize(op.OldContent) != cidhash.Normalize(actual) {
		return fmt.Errorf("OLD content mismatch at lines %d-%d", op.StartLine, op.EndLine)
	}
	return nil
}

// mergeAdjacentHunks folds hunks whose old-ranges are within 2*contextLines
// of each other into a single hunk, reducing patch fragmentation.
func mergeAdjacentHunks(hunks []Hunk, contextLines int) []Hunk {
	if len(hunks) <= 1 {
		return hunks
	}

	merged := make([]Hunk, 0, len(hunks))
	current := hunks[0]

	for _, next := range hunks[1:] {
		currentEnd := current.OldStart + current.OldCount
		gap := next.OldStart - currentEnd
		if gap < 0 {
			gap = 0
		}
		if gap <= contextLines*2 {
			current = mergeTwoHunks(current, next)
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	merged = append(merged, current)
	return merged
}

func mergeTwoHunks(first, second Hunk) Hunk {
	first.OldCount = (second.OldStart + second.OldCount) - first.OldStart
	first.NewCount = (second.NewStart + second.NewCount) - first.NewStart
	first.Lines = append(first.Lines, second.Lines...)
	return first
}

// RenderUnifiedDiff renders an entire Set as a unified-diff string with a
// leading metadata comment per file.
func RenderUnifiedDiff(set Set) string {
	var b strings.Builder
	for _, fp := range set.FilePatches {
		renderFilePatch(&b, fp)
	}
	return b.String()
}

func renderFilePatch(b *strings.Builder, fp FilePatch) {
	cid := fp.Metadata.SourceCID
	if cid == "" {
		cid = "none"
	}
	fmt.Fprintf(b, "# RUP: CID=%s CONTEXT=%d ENGINE=%s\n", cid, fp.Metadata.ContextLines, fp.Metadata.Engine)
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", fp.Path, fp.Path)
	fmt.Fprintf(b, "--- a/%s\n", fp.Path)
	fmt.Fprintf(b, "+++ b/%s\n", fp.Path)

	for _, h := range fp.Hunks {
		renderHunk(b, h)
	}
}

func renderHunk(b *strings.Builder, h Hunk) {
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	for _, line := range h.Lines {
		switch line.Kind {
		case LineContext:
			fmt.Fprintf(b, " %s\n", line.Content)
		case LineRemove:
			fmt.Fprintf(b, "-%s\n", line.Content)
		case LineAdd:
			fmt.Fprintf(b, "+%s\n", line.Content)
		}
	}
}
