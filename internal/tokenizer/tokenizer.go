// Package tokenizer defines the external Tokenizer interface (spec.md §6.6)
// and a default implementation backed by github.com/pkoukk/tiktoken-go, the
// Go analogue of the original's tiktoken-rs dependency used by the Budgeter.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer maps text to/from a token-id sequence for one named encoding.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	// Encode returns the token ids for text.
	Encode(text string) []int

	// Decode renders ids back to text. Implementations should be lossy-safe:
	// decoding a prefix of a larger encoding should never panic.
	Decode(ids []int) string

	// Count returns len(Encode(text)) but may be cheaper to compute directly.
	Count(text string) int

	// Encoding returns the tokenizer's identifying encoding name, e.g.
	// "cl100k_base" or "o200k_base".
	Encoding() string
}

// tiktokenTokenizer wraps a tiktoken-go BPE codec for one encoding.
type tiktokenTokenizer struct {
	bpe      *tiktoken.Tiktoken
	encoding string
}

// New creates a Tokenizer for modelOrEncoding, which may be a model name
// (e.g. "gpt-4", "gpt-3.5-turbo") or a bare encoding name ("cl100k_base",
// "o200k_base"), case-insensitively. Model lookup is tried first and falls
// back to treating the value as an encoding name directly, matching the
// original's `get_bpe_from_model` then-`cl100k_base`/`o200k_base` fallback.
func New(modelOrEncoding string) (Tokenizer, error) {
	lower := strings.ToLower(modelOrEncoding)

	encodingName := lower
	enc, err := tiktoken.EncodingForModel(lower)
	if err != nil {
		enc, err = tiktoken.GetEncoding(lower)
		if err != nil {
			return nil, fmt.Errorf("unsupported model/encoding: %s", modelOrEncoding)
		}
	} else if lower == "o200k_base" || lower == "cl100k_base" {
		encodingName = lower
	} else {
		// modelOrEncoding resolved via a model name; the effective encoding
		// behind gpt-4/gpt-3.5-turbo family models is cl100k_base.
		encodingName = "cl100k_base"
	}

	return &tiktokenTokenizer{bpe: enc, encoding: encodingName}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.bpe.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(ids []int) string {
	return t.bpe.Decode(ids)
}

func (t *tiktokenTokenizer) Count(text string) int {
	return len(t.Encode(text))
}

func (t *tiktokenTokenizer) Encoding() string {
	return t.encoding
}
