package contextasm

import (
	"regexp"
	"strconv"
	"strings"
)

// Severity classifies a FailSignal's urgency, used to weight the fail-signal
// boost in Assemble.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// weight returns the severity's boost weight, per spec.md §4.7.3e.
func (s Severity) weight() float64 {
	switch s {
	case SeverityError:
		return 3.0
	case SeverityWarn:
		return 1.5
	default:
		return 1.0
	}
}

// FailSignal is one parsed failure location: a file, the 1-based line
// numbers it was implicated at, and a severity.
type FailSignal struct {
	File     string
	Lines    []int
	Severity Severity
}

// parseCargo matches rustc/cargo's "error[Ennnn]:"/"warning:" + "--> file:line:col"
// diagnostic shape.
var (
	cargoSeverityRe = regexp.MustCompile(`^(error|warning)(\[[A-Z0-9]+\])?:`)
	cargoLocationRe = regexp.MustCompile(`^\s*-->\s*([^:]+):(\d+):(\d+)`)
)

func parseCargo(text string) []FailSignal {
	var out []FailSignal
	sev := SeverityError

	for _, line := range strings.Split(text, "\n") {
		if m := cargoSeverityRe.FindStringSubmatch(line); m != nil {
			if m[1] == "warning" {
				sev = SeverityWarn
			} else {
				sev = SeverityError
			}
			continue
		}
		if m := cargoLocationRe.FindStringSubmatch(line); m != nil {
			lineNo, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			out = append(out, FailSignal{File: m[1], Lines: []int{lineNo}, Severity: sev})
		}
	}
	return out
}

// goBuildRe matches `go build`/`go vet`'s "file.go:line:col: message" shape.
var goBuildRe = regexp.MustCompile(`^([^\s:]+\.go):(\d+):(\d+):\s+(.+)$`)

func parseGoBuild(text string) []FailSignal {
	var out []FailSignal
	for _, line := range strings.Split(text, "\n") {
		m := goBuildRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out = append(out, FailSignal{File: m[1], Lines: []int{lineNo}, Severity: SeverityError})
	}
	return out
}

// pytestRe matches pytest's "FAILED path/to/test_file.py::TestClass::test_name" summary lines.
var pytestRe = regexp.MustCompile(`^FAILED\s+([^:]+\.py)(::\S+)?`)

func parsePytest(text string) []FailSignal {
	var out []FailSignal
	for _, line := range strings.Split(text, "\n") {
		m := pytestRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, FailSignal{File: m[1], Severity: SeverityError})
	}
	return out
}

// ParseFailSignalLog runs a fixed-order chain of format parsers (cargo, go
// build, pytest) against text and returns the first one that finds any
// signal — spec.md §4.7.2d's "first non-empty wins" contract, grounded on
// original_source/src/core/fail_signal.rs.
func ParseFailSignalLog(text string) []FailSignal {
	for _, parse := range []func(string) []FailSignal{parseCargo, parseGoBuild, parsePytest} {
		if signals := parse(text); len(signals) > 0 {
			return signals
		}
	}
	return nil
}

// boostFactor computes the fail-signal boost multiplier for a piece spanning
// [startLine, endLine] in file, per spec.md §4.7.3e: 1 + Σ weight/(1 +
// distance) across every signal in the same file, where distance is the
// minimum line distance from the piece's span to any of the signal's lines.
// Bounded to [1, 4] so a pathological signal cluster cannot invert ordering
// across named priority levels.
func boostFactor(file string, startLine, endLine int, signals []FailSignal) float64 {
	factor := 1.0
	for _, sig := range signals {
		if sig.File != file {
			continue
		}
		for _, line := range sig.Lines {
			d := lineDistance(startLine, endLine, line)
			factor += sig.Severity.weight() / (1 + float64(d))
		}
	}
	if factor > 4 {
		factor = 4
	}
	return factor
}

func lineDistance(start, end, line int) int {
	if line < start {
		return start - line
	}
	if line > end {
		return line - end
	}
	return 0
}
