// Package editengine validates and applies a parsed EditSpec against the
// files it names: validation against current file content via content-id
// guards, overlap detection, and atomic, newline-preserving writes.
package editengine

import (
	"fmt"

	"github.com/standardbeagle/rup/internal/editfmt"
)

// ConflictType classifies why an operation failed validation.
type ConflictType int

const (
	ConflictSpanOutOfRange ConflictType = iota
	ConflictContentMismatch
	ConflictOldContentMismatch
	ConflictOverlapping
	ConflictUnresolvedMarkers
)

func (c ConflictType) String() string {
	switch c {
	case ConflictSpanOutOfRange:
		return "SpanOutOfRange"
	case ConflictContentMismatch:
		return "ContentMismatch"
	case ConflictOldContentMismatch:
		return "OldContentMismatch"
	case ConflictOverlapping:
		return "OverlappingOperations"
	case ConflictUnresolvedMarkers:
		return "UnresolvedConflictMarkers"
	default:
		return "Unknown"
	}
}

// Conflict is one validation failure, attributable to a specific file and
// span.
type Conflict struct {
	File      string
	Type      ConflictType
	StartLine int
	EndLine   int
	Message   string
}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s: %s lines %d-%d: %s", c.File, c.Type, c.StartLine, c.EndLine, c.Message)
}

func newConflict(file string, t ConflictType, op editfmt.Operation, msg string) Conflict {
	start, end := op.StartLine, op.EndLine
	if op.Kind == editfmt.OpInsert {
		start, end = op.AtLine, op.AtLine
	}
	return Conflict{File: file, Type: t, StartLine: start, EndLine: end, Message: msg}
}
