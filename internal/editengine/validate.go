package editengine

import (
	"sort"
	"strings"

	"github.com/standardbeagle/rup/internal/cidhash"
	"github.com/standardbeagle/rup/internal/editfmt"
)

// splitForComparison splits content into logical lines for validation
// purposes, using the same rules ApplyFileBlock's logicalLines applies
// (trailing '\r' stripped, synthetic trailing blank from a final newline
// removed) so validation's line count always matches what Apply will
// actually operate on.
func splitForComparison(content string) []string {
	return logicalLines(content, detectNewlineStyle(content))
}

// validateOperation checks one operation against the file's current lines,
// returning a Conflict if it fails.
func validateOperation(file string, lines []string, op editfmt.Operation) *Conflict {
	n := len(lines)

	switch op.Kind {
	case editfmt.OpInsert:
		if op.AtLine < 0 || op.AtLine > n {
			c := newConflict(file, ConflictSpanOutOfRange, op, "insert point outside file")
			return &c
		}
		return nil

	case editfmt.OpReplace, editfmt.OpDelete:
		if op.StartLine < 1 || op.EndLine > n || op.StartLine > op.EndLine {
			c := newConflict(file, ConflictSpanOutOfRange, op, "span outside file")
			return &c
		}
		if op.Kind == editfmt.OpDelete {
			return nil
		}

		current := strings.Join(lines[op.StartLine-1:op.EndLine], "\n")
		if op.GuardCID != "" {
			if cidhash.CID(current) != strings.ToLower(op.GuardCID) {
				c := newConflict(file, ConflictContentMismatch, op, "guard CID does not match current content")
				return &c
			}
			return nil
		}

		if cidhash.Normalize(current) != cidhash.Normalize(op.OldContent) {
			c := newConflict(file, ConflictOldContentMismatch, op, "OLD content does not match current content")
			return &c
		}
		return nil
	}
	return nil
}

// span is a half-open-ish 1-based inclusive line range used for overlap
// detection among Replace/Delete operations.
type span struct {
	start, end int
}

// detectOverlaps returns a Conflict if any two Replace/Delete operations in
// ops share a line.
func detectOverlaps(file string, ops []editfmt.Operation) *Conflict {
	var spans []span
	for _, op := range ops {
		if op.Kind == editfmt.OpReplace || op.Kind == editfmt.OpDelete {
			spans = append(spans, span{op.StartLine, op.EndLine})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	for i := 1; i < len(spans); i++ {
		if spans[i].start <= spans[i-1].end {
			return &Conflict{
				File:      file,
				Type:      ConflictOverlapping,
				StartLine: spans[i].start,
				EndLine:   spans[i-1].end,
				Message:   "operations overlap",
			}
		}
	}
	return nil
}

// ValidateFileBlock validates every operation in block against content,
// including overlap detection, and returns all conflicts found (empty slice
// if the block is entirely valid).
func ValidateFileBlock(content string, block editfmt.FileBlock) []Conflict {
	lines := splitForComparison(content)

	var conflicts []Conflict
	for _, op := range block.Operations {
		if c := validateOperation(block.Path, lines, op); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	if c := detectOverlaps(block.Path, block.Operations); c != nil {
		conflicts = append(conflicts, *c)
	}
	return conflicts
}
