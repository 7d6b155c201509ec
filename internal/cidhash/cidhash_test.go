package cidhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a\nb\r\nc \t\n",
		"single line",
		"",
		"trailing\n\n\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize not idempotent for %q", in)
	}
}

func TestNormalizeStripsTrailingWhitespaceAndNewline(t *testing.T) {
	assert.Equal(t, "a\nb\nc", Normalize("a \nb\t\nc\r\n"))
}

func TestCIDDeterministic(t *testing.T) {
	a := CID("fn main() {}\n")
	b := CID("fn main() {}\n")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestCIDDiffersOnContentChange(t *testing.T) {
	assert.NotEqual(t, CID("a\n"), CID("b\n"))
}

func TestCIDIgnoresTrailingWhitespaceDifferences(t *testing.T) {
	assert.Equal(t, CID("line\n"), CID("line \n"))
}
