// Package errors defines rup's classified error taxonomy: every error that
// crosses a command boundary is one of InvalidSpec, RepoIssue, Conflicts, or
// Internal, each mapping to a stable process exit code.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes, stable across releases; scripts depend on these.
const (
	ExitSuccess     = 0
	ExitConflicts   = 2
	ExitInvalidSpec = 3
	ExitRepoIssue   = 4
	ExitInternal    = 5
)

// Kind identifies which of the four taxonomy buckets an error belongs to.
type Kind int

const (
	KindInvalidSpec Kind = iota
	KindRepoIssue
	KindConflicts
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSpec:
		return "invalid_spec"
	case KindRepoIssue:
		return "repo_issue"
	case KindConflicts:
		return "conflicts"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code for a Kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindInvalidSpec:
		return ExitInvalidSpec
	case KindRepoIssue:
		return ExitRepoIssue
	case KindConflicts:
		return ExitConflicts
	case KindInternal:
		return ExitInternal
	default:
		return ExitInternal
	}
}

// Error is rup's classified error. It wraps an underlying cause and carries
// enough context (kind, optional file, optional recoverable flag) to render a
// human summary or a structured JSON form.
type Error struct {
	Kind        Kind
	Message     string
	File        string
	Recoverable bool
	Cause       error
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.File)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode implements the same interface as Kind for convenience at call sites
// that only have an *Error in hand.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// WithFile attaches the file the error pertains to and returns the receiver.
func (e *Error) WithFile(file string) *Error {
	e.File = file
	return e
}

// WithRecoverable marks whether the caller may retry the same operation
// after addressing the error (e.g. a stale lock that can be cleaned once).
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// WithCause attaches an underlying cause for errors.Unwrap/errors.Is chains.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidSpec builds an InvalidSpec-kind error: malformed edit format, bad
// spans, unknown directives.
func InvalidSpec(format string, args ...any) *Error { return newErr(KindInvalidSpec, format, args...) }

// RepoIssue builds a RepoIssue-kind error: missing/invalid repository, path
// boundary violations, missing symbol index when required.
func RepoIssue(format string, args ...any) *Error { return newErr(KindRepoIssue, format, args...) }

// Conflicts builds a Conflicts-kind error: CID/OLD mismatch, overlapping
// operations, span out of range, unresolved textual conflict markers.
func Conflicts(format string, args ...any) *Error { return newErr(KindConflicts, format, args...) }

// Internal builds an Internal-kind error: unexpected I/O or logic error.
func Internal(format string, args ...any) *Error { return newErr(KindInternal, format, args...) }

// As is a thin re-export of the standard library's errors.As so callers only
// need to import this package when matching on *Error.
func As(err error, target any) bool { return errors.As(err, target) }

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindInternal for unclassified errors — the safest exit code for an
// error the caller did not anticipate.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ExitCodeFor returns the process exit code appropriate for err, or
// ExitSuccess if err is nil.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return KindOf(err).ExitCode()
}
