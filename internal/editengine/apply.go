package editengine

import (
	"sort"
	"strings"

	"github.com/standardbeagle/rup/internal/editfmt"
)

// kindRank orders operations within the same start line: Delete before
// Replace before Insert, per spec.md §4.4.3.
func kindRank(k editfmt.OperationKind) int {
	switch k {
	case editfmt.OpDelete:
		return 0
	case editfmt.OpReplace:
		return 1
	default:
		return 2
	}
}

func opStartForOrdering(op editfmt.Operation) int {
	if op.Kind == editfmt.OpInsert {
		return op.AtLine
	}
	return op.StartLine
}

func opEndForOrdering(op editfmt.Operation) int {
	if op.Kind == editfmt.OpInsert {
		return op.AtLine
	}
	return op.EndLine
}

// orderForApply sorts a copy of ops by the stable key (start_line desc,
// kind_rank asc, end_line desc): applying bottom-up keeps higher-line
// indices valid while lower-line content is modified.
func orderForApply(ops []editfmt.Operation) []editfmt.Operation {
	ordered := make([]editfmt.Operation, len(ops))
	copy(ordered, ops)

	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := opStartForOrdering(ordered[i]), opStartForOrdering(ordered[j])
		if si != sj {
			return si > sj
		}
		ri, rj := kindRank(ordered[i].Kind), kindRank(ordered[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return opEndForOrdering(ordered[i]) > opEndForOrdering(ordered[j])
	})
	return ordered
}

// newlineStyle describes the detected newline convention of a file.
type newlineStyle struct {
	sep             string
	trailingPresent bool
}

func detectNewlineStyle(content string) newlineStyle {
	sep := "\n"
	if strings.Contains(content, "\r\n") {
		sep = "\r\n"
	}
	return newlineStyle{sep: sep, trailingPresent: strings.HasSuffix(content, "\n")}
}

// logicalLines splits content into its logical lines: '\r' stripped, and the
// synthetic trailing empty element from a final newline removed.
func logicalLines(content string, style newlineStyle) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if style.trailingPresent && len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ApplyFileBlock applies block's operations (assumed already validated) to
// content and returns the resulting file content, with the original newline
// convention and trailing-newline presence preserved.
func ApplyFileBlock(content string, block editfmt.FileBlock) string {
	style := detectNewlineStyle(content)
	lines := logicalLines(content, style)

	for _, op := range orderForApply(block.Operations) {
		switch op.Kind {
		case editfmt.OpReplace:
			newLines := splitContentLines(op.NewContent)
			lines = spliceLines(lines, op.StartLine-1, op.EndLine, newLines)
		case editfmt.OpInsert:
			newLines := splitContentLines(op.NewContent)
			lines = spliceLines(lines, op.AtLine, op.AtLine, newLines)
		case editfmt.OpDelete:
			lines = spliceLines(lines, op.StartLine-1, op.EndLine, nil)
		}
	}

	out := strings.Join(lines, style.sep)
	if style.trailingPresent {
		out += style.sep
	}
	return out
}

func splitContentLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// spliceLines replaces lines[from:to] with replacement, returning the new
// slice. from/to are 0-based half-open indices into lines.
func spliceLines(lines []string, from, to int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(to-from)+len(replacement))
	out = append(out, lines[:from]...)
	out = append(out, replacement...)
	out = append(out, lines[to:]...)
	return out
}
