package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Symbol{ByteStart: 0, ByteEnd: 10, StartLine: 1, EndLine: 1}.Valid())
	assert.False(t, Symbol{ByteStart: 10, ByteEnd: 5, StartLine: 1, EndLine: 1}.Valid())
	assert.False(t, Symbol{ByteStart: 0, ByteEnd: 10, StartLine: 5, EndLine: 1}.Valid())
}

func TestSortDeterministicOrder(t *testing.T) {
	in := []Symbol{
		{File: "b.go", StartLine: 1, ByteStart: 0, Name: "z"},
		{File: "a.go", StartLine: 5, ByteStart: 0, Name: "y"},
		{File: "a.go", StartLine: 1, ByteStart: 10, Name: "x"},
		{File: "a.go", StartLine: 1, ByteStart: 0, Name: "b"},
		{File: "a.go", StartLine: 1, ByteStart: 0, Name: "a"},
	}
	Sort(in)

	want := []string{"a", "b", "x", "y", "z"}
	for i, w := range want {
		assert.Equal(t, w, in[i].Name, "index %d", i)
	}
}
