package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, Chunk("", 100, 10))
}

func TestChunk_SingleChunk(t *testing.T) {
	text := "第一句。第二句！Third sentence? Done."
	chunks := Chunk(text, 400, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len([]rune(text)), chunks[0].End)
}

func TestChunk_OffsetsMatchContent(t *testing.T) {
	text := strings.Repeat("这是一个用于测试的句子。", 40) + "\nTrailing text without terminator"
	runes := []rune(text)

	for _, tc := range []struct{ max, overlap int }{
		{400, 50},
		{60, 10},
		{25, 0},
		{13, 12},
	} {
		chunks := Chunk(text, tc.max, tc.overlap)
		require.NotEmpty(t, chunks)
		for i, c := range chunks {
			assert.Equal(t, string(runes[c.Start:c.End]), c.Content, "chunk %d max=%d", i, tc.max)
		}
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, len(runes), chunks[len(chunks)-1].End)

		// Consecutive chunks touch or overlap, so nothing is lost.
		for i := 1; i < len(chunks); i++ {
			assert.LessOrEqual(t, chunks[i].Start, chunks[i-1].End)
			assert.Greater(t, chunks[i].End, chunks[i-1].End)
		}
	}
}

func TestChunk_RespectsMaxSize(t *testing.T) {
	text := strings.Repeat("短句。", 100)
	chunks := Chunk(text, 30, 5)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 30)
	}
}

func TestChunk_OverlapSeedsNextChunk(t *testing.T) {
	text := "aaaa. bbbb. cccc. dddd."
	chunks := Chunk(text, 12, 3)
	require.Greater(t, len(chunks), 1)

	prev := []rune(chunks[0].Content)
	next := []rune(chunks[1].Content)
	assert.Equal(t, string(prev[len(prev)-3:]), string(next[:3]))
}

func TestChunk_RebuildByDroppingOverlap(t *testing.T) {
	text := strings.Repeat("这是一个用于测试的句子。", 20) + "最后一句没有句号"
	const maxSize, overlap = 60, 10

	chunks := Chunk(text, maxSize, overlap)
	require.Greater(t, len(chunks), 2)

	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		require.Equal(t, chunks[i-1].End-overlap, chunks[i].Start, "chunk %d carries a full seed", i)
		b.WriteString(string([]rune(chunks[i].Content)[overlap:]))
	}
	assert.Equal(t, text, b.String())
}

func TestChunk_SeedCutToFitSentence(t *testing.T) {
	text := "aaaaaaaa. bbbbbbbb."
	chunks := Chunk(text, 10, 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaaaaa.", chunks[0].Content)
	assert.Equal(t, " bbbbbbbb.", chunks[1].Content)

	// Offsets still rebuild the text when the seed is cut.
	assert.Equal(t, chunks[0].End, chunks[1].Start)
	assert.Equal(t, text, chunks[0].Content+string([]rune(text)[chunks[0].End:chunks[1].End]))
}

func TestChunk_OversizeSentence(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := Chunk("hi. "+long, 10, 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, "hi.", chunks[0].Content)
	assert.Equal(t, " "+long, chunks[1].Content)
}

func TestChunk_ClampsOverlap(t *testing.T) {
	chunks := Chunk("one. two. six. ten.", 6, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 6)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"chinese", "你好。世界！", []string{"你好。", "世界！"}},
		{"terminator run", "真的吗？！好", []string{"真的吗？！", "好"}},
		{"decimal point", "pi is 3.14 ok. next", []string{"pi is 3.14 ok.", " next"}},
		{"newline", "line one\nline two", []string{"line one\n", "line two"}},
		{"trailing dot", "end.", []string{"end."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range splitSentences([]rune(tt.in)) {
				got = append(got, string(s))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
