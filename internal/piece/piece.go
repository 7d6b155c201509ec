// Package piece implements the Piece Merger: collapsing overlapping or
// adjacent line spans per file into maximal contiguous Pieces.
package piece

import (
	"sort"
	"strings"

	"github.com/standardbeagle/rup/internal/symbols"
)

// Piece is a contiguous source slice selected for context.
type Piece struct {
	File      string
	StartLine int // 1-based inclusive
	EndLine   int // 1-based inclusive
	Body      string
	Kind      symbols.Kind // the originating Symbol's kind; empty if unknown
}

// touching reports whether next is overlapping or adjacent to cur: the span
// spec.md §4.2 calls "touching" when next.start <= cur.end + 1.
func touching(cur, next Piece) bool {
	return cur.File == next.File && next.StartLine <= cur.EndLine+1
}

// Merge sorts pieces by (file, start_line) and collapses touching pieces
// sharing a file into maximal contiguous pieces, preserving captured body
// text with no duplicated lines.
func Merge(pieces []Piece) []Piece {
	if len(pieces) == 0 {
		return nil
	}

	ordered := make([]Piece, len(pieces))
	copy(ordered, pieces)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].File != ordered[j].File {
			return ordered[i].File < ordered[j].File
		}
		return ordered[i].StartLine < ordered[j].StartLine
	})

	var out []Piece
	cur := ordered[0]

	for _, p := range ordered[1:] {
		if touching(cur, p) {
			cur = mergeInto(cur, p)
			continue
		}
		out = append(out, cur)
		cur = p
	}
	out = append(out, cur)

	return out
}

// mergeInto extends cur with p: the portion of p.Body beyond cur's existing
// coverage is appended, extending cur.EndLine to the max of the two.
func mergeInto(cur, p Piece) Piece {
	overlapLines := cur.EndLine - p.StartLine + 1
	if overlapLines < 0 {
		overlapLines = 0
	}

	pLines := splitLines(p.Body)
	if overlapLines > len(pLines) {
		overlapLines = len(pLines)
	}
	newLines := pLines[overlapLines:]

	body := cur.Body
	if len(newLines) > 0 {
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		body += strings.Join(newLines, "\n")
	}

	endLine := cur.EndLine
	if p.EndLine > endLine {
		endLine = p.EndLine
	}

	// The merged piece keeps cur's Kind: cur is always the earlier-starting
	// (or equal) piece by Merge's sort order, so its declaration is the one
	// that opens the merged span.
	return Piece{File: cur.File, StartLine: cur.StartLine, EndLine: endLine, Body: body, Kind: cur.Kind}
}

func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}
