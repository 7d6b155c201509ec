package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFindsAllFourMarkers(t *testing.T) {
	content := []byte("line1\n<<<<<<< HEAD\nours\n||||||| base\nbase\n=======\ntheirs\n>>>>>>> branch\n")
	markers := Detect(content)
	require.Len(t, markers, 4)
	assert.Equal(t, MarkerOurs, markers[0].Kind)
	assert.Equal(t, 2, markers[0].Line)
	assert.Equal(t, MarkerBase, markers[1].Kind)
	assert.Equal(t, MarkerSep, markers[2].Kind)
	assert.Equal(t, MarkerTheirs, markers[3].Kind)
}

func TestDetectRequiresColumnZero(t *testing.T) {
	content := []byte("  <<<<<<< HEAD\n")
	assert.False(t, HasConflicts(content))
}

func TestDetectRequiresMinimumRun(t *testing.T) {
	content := []byte("<<<<<< short\n")
	assert.False(t, HasConflicts(content))
}

func TestDetectCleanFileHasNoMarkers(t *testing.T) {
	content := []byte("func main() {}\n")
	assert.False(t, HasConflicts(content))
	assert.Empty(t, Detect(content))
}

func TestDetectLossyOnInvalidUTF8(t *testing.T) {
	content := append([]byte("<<<<<<< \xff\xfe\n"))
	markers := Detect(content)
	require.Len(t, markers, 1)
	assert.NotEmpty(t, markers[0].Content)
}
