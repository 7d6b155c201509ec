// Package cidhash computes Content-IDs: a 64-bit hash of normalized content
// used as a guard against concurrent modification of a file span. It also
// hosts the normalization routine the Edit Engine and the Patch Generator use
// for OLD-content comparison: "trim trailing whitespace per line, rejoin with
// LF". The Budgeter's dedup clustering uses its own normalization.
package cidhash

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalize trims trailing ' ', '\t', '\r' from every line, rejoins with LF,
// and drops all trailing newlines, so Normalize is idempotent. This is the
// canonical form CIDs are computed over, and the form the Edit Engine
// compares OLD-content against.
func Normalize(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	out := strings.Join(lines, "\n")
	return strings.TrimRight(out, "\n")
}

// CID computes the Content-ID of content: normalize, hash with a fixed seed,
// render as 16 lowercase hex characters. Deterministic and platform-stable.
func CID(content string) string {
	norm := Normalize(content)
	h := xxhash.Sum64String(norm)
	return fmt.Sprintf("%016x", h)
}

// Hash64 returns the raw 64-bit xxhash of s, used for budgeter cache keys
// where the hex-string CID form is unnecessary overhead.
func Hash64(s string) uint64 {
	return xxhash.Sum64String(s)
}
