package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// runeCodec is a deterministic test codec: one token per rune.
type runeCodec struct{}

func (runeCodec) Encode(text string) []int {
	var tokens []int
	for _, r := range text {
		tokens = append(tokens, int(r))
	}
	return tokens
}

func (runeCodec) Decode(tokens []int) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteRune(rune(t))
	}
	return b.String()
}

func texts(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	t.Run("overlap equal to size rejected", func(t *testing.T) {
		cfg := Config{Strategy: StrategyWord, ChunkSize: 2, ChunkOverlap: 2}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
		}
	})

	t.Run("overlap greater than size rejected", func(t *testing.T) {
		cfg := Config{Strategy: StrategyCharacter, ChunkSize: 10, ChunkOverlap: 20}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
		}
	})

	t.Run("zero chunk size rejected", func(t *testing.T) {
		cfg := Config{Strategy: StrategyWord, ChunkSize: 0}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
		}
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		cfg := Config{Strategy: StrategyWord, ChunkSize: 5, ChunkOverlap: -1}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
		}
	})

	t.Run("unknown strategy rejected", func(t *testing.T) {
		cfg := Config{Strategy: "sentence", ChunkSize: 5}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrUnknownStrategy) {
			t.Fatalf("expected ErrUnknownStrategy, got %v", err)
		}
	})

	t.Run("token strategy requires codec", func(t *testing.T) {
		cfg := Config{Strategy: StrategyToken, ChunkSize: 5, ChunkOverlap: 1}
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
		}
	})

	t.Run("valid config accepted", func(t *testing.T) {
		cfg := Config{Strategy: StrategyRecursive, ChunkSize: 100, ChunkOverlap: 20}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestSplitEmptyInput(t *testing.T) {
	for _, strategy := range []Strategy{StrategyCharacter, StrategyWord, StrategyRecursive} {
		t.Run(string(strategy), func(t *testing.T) {
			spans, err := Split("", Config{Strategy: strategy, ChunkSize: 10, ChunkOverlap: 2})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(spans) != 0 {
				t.Errorf("expected no spans for empty input, got %d", len(spans))
			}
		})
	}
}

func TestSplitWord(t *testing.T) {
	t.Run("two word windows with one word overlap", func(t *testing.T) {
		spans, err := Split("Alpha Bravo Charlie Delta",
			Config{Strategy: StrategyWord, ChunkSize: 2, ChunkOverlap: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"Alpha Bravo", "Bravo Charlie", "Charlie Delta"}
		if !reflect.DeepEqual(texts(spans), want) {
			t.Errorf("got %v, want %v", texts(spans), want)
		}
	})

	t.Run("short input yields single span", func(t *testing.T) {
		spans, err := Split("Echo Foxtrot",
			Config{Strategy: StrategyWord, ChunkSize: 2, ChunkOverlap: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(spans) != 1 || spans[0].Text != "Echo Foxtrot" {
			t.Errorf("got %v, want [Echo Foxtrot]", texts(spans))
		}
	})

	t.Run("interior whitespace preserved", func(t *testing.T) {
		spans, err := Split("a  b\tc",
			Config{Strategy: StrategyWord, ChunkSize: 2, ChunkOverlap: 0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"a  b", "c"}
		if !reflect.DeepEqual(texts(spans), want) {
			t.Errorf("got %v, want %v", texts(spans), want)
		}
	})

	t.Run("whitespace-only input yields no spans", func(t *testing.T) {
		spans, err := Split("   \n\t ",
			Config{Strategy: StrategyWord, ChunkSize: 2, ChunkOverlap: 0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(spans) != 0 {
			t.Errorf("expected no spans, got %v", texts(spans))
		}
	})
}

func TestSplitCharacter(t *testing.T) {
	t.Run("sliding window", func(t *testing.T) {
		spans, err := Split("abcd",
			Config{Strategy: StrategyCharacter, ChunkSize: 2, ChunkOverlap: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"ab", "bc", "cd"}
		if !reflect.DeepEqual(texts(spans), want) {
			t.Errorf("got %v, want %v", texts(spans), want)
		}
	})

	t.Run("multibyte runes", func(t *testing.T) {
		spans, err := Split("héllø",
			Config{Strategy: StrategyCharacter, ChunkSize: 2, ChunkOverlap: 0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"hé", "ll", "ø"}
		if !reflect.DeepEqual(texts(spans), want) {
			t.Errorf("got %v, want %v", texts(spans), want)
		}
	})

	t.Run("offsets slice the source exactly", func(t *testing.T) {
		text := "the quick brown fox"
		spans, err := Split(text,
			Config{Strategy: StrategyCharacter, ChunkSize: 7, ChunkOverlap: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, s := range spans {
			if s.End <= s.Start {
				t.Errorf("span %d: End %d not greater than Start %d", i, s.End, s.Start)
			}
			if text[s.Start:s.End] != s.Text {
				t.Errorf("span %d: offsets do not match text", i)
			}
		}
	})
}

func TestSplitToken(t *testing.T) {
	cfg := Config{Strategy: StrategyToken, ChunkSize: 3, ChunkOverlap: 1, Codec: runeCodec{}}

	spans, err := Split("abcdef", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"abc", "cde", "ef"}
	if !reflect.DeepEqual(texts(spans), want) {
		t.Errorf("got %v, want %v", texts(spans), want)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := "Alpha Bravo Charlie Delta Echo Foxtrot Golf Hotel India Juliet"
	configs := []Config{
		{Strategy: StrategyWord, ChunkSize: 3, ChunkOverlap: 1},
		{Strategy: StrategyCharacter, ChunkSize: 12, ChunkOverlap: 4},
		{Strategy: StrategyToken, ChunkSize: 8, ChunkOverlap: 2, Codec: runeCodec{}},
		{Strategy: StrategyRecursive, ChunkSize: 20, ChunkOverlap: 5},
	}

	for _, cfg := range configs {
		t.Run(string(cfg.Strategy), func(t *testing.T) {
			first, err := Split(text, cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			second, err := Split(text, cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Error("repeated calls produced different span sequences")
			}
		})
	}
}

func TestSplitCoverage(t *testing.T) {
	text := "Pack my box with five dozen liquor jugs. The quick brown fox " +
		"jumps over the lazy dog. Sphinx of black quartz, judge my vow."
	configs := []Config{
		{Strategy: StrategyWord, ChunkSize: 5, ChunkOverlap: 2},
		{Strategy: StrategyCharacter, ChunkSize: 30, ChunkOverlap: 10},
		{Strategy: StrategyToken, ChunkSize: 25, ChunkOverlap: 5, Codec: runeCodec{}},
		{Strategy: StrategyRecursive, ChunkSize: 40, ChunkOverlap: 10},
	}

	for _, cfg := range configs {
		t.Run(string(cfg.Strategy), func(t *testing.T) {
			spans, err := Split(text, cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(spans) == 0 {
				t.Fatal("expected spans")
			}

			for i := 1; i < len(spans); i++ {
				if spans[i].Start < spans[i-1].Start {
					t.Errorf("span %d: start offset decreased", i)
				}
				if spans[i].Start > spans[i-1].End {
					t.Errorf("gap between span %d and %d: content dropped", i-1, i)
				}
			}

			// Concatenating each span up to the next span's start, plus the
			// final span, reconstructs the covered range exactly.
			var b strings.Builder
			for i := 0; i < len(spans)-1; i++ {
				b.WriteString(text[spans[i].Start:spans[i+1].Start])
			}
			b.WriteString(spans[len(spans)-1].Text)
			if got := b.String(); got != text[spans[0].Start:spans[len(spans)-1].End] {
				t.Error("overlap-removed concatenation does not reconstruct the input")
			}
		})
	}
}

func TestSplitExactOverlap(t *testing.T) {
	// Fixed strategies share exactly ChunkOverlap units between adjacent
	// windows, except possibly the final pair.
	spans, err := Split("a b c d e f g",
		Config{Strategy: StrategyWord, ChunkSize: 3, ChunkOverlap: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a b c", "b c d", "c d e", "d e f", "e f g"}
	if !reflect.DeepEqual(texts(spans), want) {
		t.Errorf("got %v, want %v", texts(spans), want)
	}
}
