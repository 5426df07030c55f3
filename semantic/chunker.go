package semantic

import (
	"unicode"

	"github.com/poiesic/studyforge/core"
)

const (
	// DefaultMaxChunkSize is the chunk length limit in runes.
	DefaultMaxChunkSize = 400
	// DefaultOverlap is the number of runes carried from one chunk into the next.
	DefaultOverlap = 50
)

// Chunk splits text into sentence-aligned chunks of at most maxSize runes.
//
// A sentence ends after a run of 。！？!? characters, after a '.' followed by
// whitespace or end of text, or after a line break. Sentences are kept
// verbatim so that text[Start:End] (in runes) equals Content for every chunk.
//
// When the next sentence does not fit, the current chunk is emitted and the
// next one is seeded with the trailing overlap runes of the emitted chunk.
// The seed is shortened when seed plus sentence would exceed maxSize. A
// sentence longer than maxSize on its own becomes a single oversize chunk.
func Chunk(text string, maxSize, overlap int) []core.Chunk {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}

	runes := []rune(text)
	var (
		chunks []core.Chunk
		cur    []rune
		start  int
	)
	for _, s := range splitSentences(runes) {
		if len(cur) > 0 && len(cur)+len(s) > maxSize {
			end := start + len(cur)
			chunks = append(chunks, core.Chunk{Content: string(cur), Start: start, End: end})

			seed := min(overlap, len(cur))
			if seed+len(s) > maxSize {
				seed = max(0, maxSize-len(s))
			}
			next := make([]rune, seed, seed+len(s))
			copy(next, cur[len(cur)-seed:])
			cur = next
			start = end - seed
		}
		cur = append(cur, s...)
	}
	if len(cur) > 0 {
		chunks = append(chunks, core.Chunk{Content: string(cur), Start: start, End: start + len(cur)})
	}
	return chunks
}

// splitSentences cuts runes into contiguous sentences that together cover the input.
func splitSentences(runes []rune) [][]rune {
	var out [][]rune
	begin := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			out = append(out, runes[begin:i+1])
			begin = i + 1
		case isTerminator(r):
			j := i + 1
			for j < len(runes) && isTerminator(runes[j]) {
				j++
			}
			out = append(out, runes[begin:j])
			begin = j
			i = j - 1
		case r == '.' && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])):
			out = append(out, runes[begin:i+1])
			begin = i + 1
		}
	}
	if begin < len(runes) {
		out = append(out, runes[begin:])
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?':
		return true
	}
	return false
}
