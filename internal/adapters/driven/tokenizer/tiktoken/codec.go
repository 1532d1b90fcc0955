// Package tiktoken provides a token codec backed by the tiktoken BPE
// vocabularies, matching the token counts OpenAI models see.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/marrow-labs/docchat-cli/internal/chunker"
)

// Ensure Codec implements the interface.
var _ chunker.TokenCodec = (*Codec)(nil)

// DefaultEncoding is the vocabulary used by GPT-3.5/GPT-4 era models and
// the text-embedding-3 family.
const DefaultEncoding = "cl100k_base"

// Codec encodes and decodes text with a tiktoken BPE vocabulary.
type Codec struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New creates a codec for the named encoding. The vocabulary is fetched on
// first use and cached; set TIKTOKEN_CACHE_DIR for offline operation.
func New(encodingName string) (*Codec, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encodingName, err)
	}
	return &Codec{encoding: encoding, name: encodingName}, nil
}

// ForModel creates a codec for the vocabulary a specific model uses.
func ForModel(model string) (*Codec, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("load encoding for model %q: %w", model, err)
	}
	return &Codec{encoding: encoding, name: model}, nil
}

// Encode converts text into token identifiers.
func (c *Codec) Encode(text string) []int {
	return c.encoding.Encode(text, nil, nil)
}

// Decode converts token identifiers back into text.
func (c *Codec) Decode(tokens []int) string {
	return c.encoding.Decode(tokens)
}

// Name returns the encoding name.
func (c *Codec) Name() string {
	return c.name
}
