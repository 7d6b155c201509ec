package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok, err := New("cl100k_base")
	require.NoError(t, err)

	text := "fn main() { println!(\"hi\"); }"
	ids := tok.Encode(text)
	require.NotEmpty(t, ids)
	require.Equal(t, len(ids), tok.Count(text))

	decoded := tok.Decode(ids)
	require.Equal(t, text, decoded)
}

func TestUnsupportedEncoding(t *testing.T) {
	_, err := New("not-a-real-encoding")
	require.Error(t, err)
}

func TestEncodingName(t *testing.T) {
	tok, err := New("cl100k_base")
	require.NoError(t, err)
	require.Equal(t, "cl100k_base", tok.Encoding())
}
