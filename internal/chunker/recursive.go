package chunker

import (
	"strings"
	"unicode/utf8"
)

// recursiveSeparators is the boundary preference order: paragraph break,
// line break, sentence end, word, character.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitRecursive splits at the highest-preference boundary present, recurses
// into any segment still exceeding ChunkSize characters, then merges
// adjacent segments back into windows of at most ChunkSize with a trailing
// overlap of at most ChunkOverlap. Separators stay attached to the segment
// they terminate, so the windows cover the source without dropping content.
func splitRecursive(text string, cfg Config) []Span {
	leaves := recursiveLeaves(text, 0, cfg.ChunkSize, recursiveSeparators)
	return mergeLeaves(text, leaves, cfg)
}

// recursiveLeaves produces segments of at most size runes, preferring the
// earliest separator in seps that occurs in the text. base is the byte
// offset of text within the original document.
func recursiveLeaves(text string, base, size int, seps []string) []Span {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= size {
		return []Span{{Text: text, Start: base, End: base + len(text)}}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return runeLeaves(text, base, size)
	}

	var leaves []Span
	offset := 0
	for offset < len(text) {
		idx := strings.Index(text[offset:], sep)
		var piece string
		if idx < 0 {
			piece = text[offset:]
		} else {
			// Keep the separator attached to the piece it ends.
			piece = text[offset : offset+idx+len(sep)]
		}

		if utf8.RuneCountInString(piece) <= size {
			leaves = append(leaves, Span{
				Text:  piece,
				Start: base + offset,
				End:   base + offset + len(piece),
			})
		} else {
			leaves = append(leaves, recursiveLeaves(piece, base+offset, size, rest)...)
		}
		offset += len(piece)
	}
	return leaves
}

// pickSeparator returns the first separator present in the text and the
// lower-preference separators remaining after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// runeLeaves is the last resort: fixed windows of size runes.
func runeLeaves(text string, base, size int) []Span {
	var leaves []Span
	count := 0
	start := 0
	for i := range text {
		if count == size {
			leaves = append(leaves, Span{
				Text:  text[start:i],
				Start: base + start,
				End:   base + i,
			})
			start = i
			count = 0
		}
		count++
	}
	if start < len(text) {
		leaves = append(leaves, Span{
			Text:  text[start:],
			Start: base + start,
			End:   base + len(text),
		})
	}
	return leaves
}

// mergeLeaves greedily combines consecutive leaves into windows of at most
// ChunkSize runes. After a window is emitted the next one re-includes as
// many trailing leaves as fit within ChunkOverlap runes, so adjacent
// windows overlap by at most the configured amount and never leave a gap.
func mergeLeaves(text string, leaves []Span, cfg Config) []Span {
	if len(leaves) == 0 {
		return nil
	}

	var spans []Span
	i := 0
	for i < len(leaves) {
		runes := 0
		j := i
		for j < len(leaves) {
			n := utf8.RuneCountInString(leaves[j].Text)
			if j > i && runes+n > cfg.ChunkSize {
				break
			}
			runes += n
			j++
		}

		from := leaves[i].Start
		to := leaves[j-1].End
		spans = append(spans, Span{
			Text:  text[from:to],
			Start: from,
			End:   to,
		})

		if j == len(leaves) {
			break
		}

		// Walk back over trailing leaves that fit in the overlap budget.
		next := j
		carried := 0
		for next > i+1 {
			n := utf8.RuneCountInString(leaves[next-1].Text)
			if carried+n > cfg.ChunkOverlap {
				break
			}
			carried += n
			next--
		}
		i = next
	}
	return spans
}
