package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debugf("hidden %d", 1)
	l.Infof("also hidden")
	l.Warnf("shown %s", "x")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.False(t, strings.Contains(out, "also hidden"))
	assert.True(t, strings.Contains(out, "shown x"))
}

func TestDebugLevelShowsAll(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Debugf("d")
	l.Infof("i")
	l.Warnf("w")

	out := buf.String()
	assert.True(t, strings.Contains(out, "[debug] d"))
	assert.True(t, strings.Contains(out, "[info] i"))
	assert.True(t, strings.Contains(out, "[warn] w"))
}
