// Package chunker splits raw document text into bounded, overlapping spans.
//
// Splitting is a pure function: identical (text, Config) inputs always yield
// an identical span sequence, which is what makes re-ingestion idempotent
// and the engine testable in isolation. The package has no dependencies on
// embedding or storage; token counting is injected through the TokenCodec
// interface.
package chunker

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// Strategy selects the splitting method.
type Strategy string

const (
	// StrategyToken splits on token counts under an injected TokenCodec.
	StrategyToken Strategy = "token"

	// StrategyCharacter splits on raw character (rune) counts, at the
	// nearest boundary, without respecting word boundaries.
	StrategyCharacter Strategy = "character"

	// StrategyWord splits on whitespace-delimited word boundaries.
	StrategyWord Strategy = "word"

	// StrategyRecursive prefers semantic boundaries: paragraph, then
	// line, then sentence, then word, then character, recursing into any
	// segment still exceeding the chunk size.
	StrategyRecursive Strategy = "recursive"
)

// Default chunking parameters, matching common RAG practice.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// TokenCodec converts text to a token sequence and back. Implementations
// must be deterministic and losslessly concatenative: decoding a contiguous
// token slice reproduces the exact corresponding source bytes.
type TokenCodec interface {
	// Encode converts text into token IDs.
	Encode(text string) []int

	// Decode converts token IDs back into text.
	Decode(tokens []int) string
}

// Config selects the strategy and window geometry. ChunkSize and
// ChunkOverlap are measured in the strategy's unit (tokens, characters, or
// words). Codec is required for StrategyToken and ignored otherwise.
type Config struct {
	Strategy     Strategy
	ChunkSize    int
	ChunkOverlap int
	Codec        TokenCodec
}

// Validate rejects window geometries that cannot advance. It runs before
// any chunking work begins.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive",
			domain.ErrInvalidChunkConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative",
			domain.ErrInvalidChunkConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be less than chunk size %d",
			domain.ErrInvalidChunkConfig, c.ChunkOverlap, c.ChunkSize)
	}
	switch c.Strategy {
	case StrategyToken:
		if c.Codec == nil {
			return fmt.Errorf("%w: token strategy requires a codec",
				domain.ErrInvalidChunkConfig)
		}
	case StrategyCharacter, StrategyWord, StrategyRecursive:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, c.Strategy)
	}
	return nil
}

// Span is one chunk of the source text. Text is always an exact substring
// of the input; Start and End are byte offsets into it, End > Start.
type Span struct {
	Text  string
	Start int
	End   int
}

// Split partitions text into consecutive windows of ChunkSize units; each
// window after the first begins ChunkSize−ChunkOverlap units after the
// previous window's start, so adjacent windows share exactly ChunkOverlap
// units (the final window may be shorter). Empty input yields no spans,
// not an error.
func Split(text string, cfg Config) ([]Span, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	switch cfg.Strategy {
	case StrategyCharacter:
		return windows(runeUnits(text), text, cfg), nil
	case StrategyWord:
		return windows(wordUnits(text), text, cfg), nil
	case StrategyToken:
		return windows(tokenUnits(text, cfg.Codec), text, cfg), nil
	case StrategyRecursive:
		return splitRecursive(text, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, cfg.Strategy)
	}
}

// unit is one indivisible element of the text under a given strategy,
// expressed as a byte range in the source.
type unit struct {
	start int
	end   int
}

// windows applies the fixed sliding window over precomputed units.
// Span text is cut from the source, so interior whitespace and formatting
// survive intact.
func windows(units []unit, text string, cfg Config) []Span {
	if len(units) == 0 {
		return nil
	}

	step := cfg.ChunkSize - cfg.ChunkOverlap
	estimated := len(units)/step + 1
	spans := make([]Span, 0, estimated)

	for start := 0; start < len(units); start += step {
		end := start + cfg.ChunkSize
		if end > len(units) {
			end = len(units)
		}

		from := units[start].start
		to := units[end-1].end
		spans = append(spans, Span{
			Text:  text[from:to],
			Start: from,
			End:   to,
		})

		if end == len(units) {
			break
		}
	}

	return spans
}

// runeUnits returns one unit per rune.
func runeUnits(text string) []unit {
	units := make([]unit, 0, len(text))
	for i, r := range text {
		units = append(units, unit{start: i, end: i + utf8.RuneLen(r)})
	}
	return units
}

// wordUnits returns one unit per whitespace-delimited word.
func wordUnits(text string) []unit {
	var units []unit
	inWord := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				units = append(units, unit{start: start, end: i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		units = append(units, unit{start: start, end: len(text)})
	}
	return units
}

// tokenUnits returns one unit per token. BPE tokenisation partitions the
// byte stream, so per-token decode lengths recover exact byte offsets.
func tokenUnits(text string, codec TokenCodec) []unit {
	tokens := codec.Encode(text)
	units := make([]unit, 0, len(tokens))
	offset := 0
	for _, tok := range tokens {
		n := len(codec.Decode([]int{tok}))
		units = append(units, unit{start: offset, end: offset + n})
		offset += n
	}
	return units
}
