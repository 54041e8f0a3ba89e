package retriever

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortText(t *testing.T) {
	cfg := DefaultChunkConfig()
	chunks := chunkText("a short document", cfg)

	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, chunkText("", DefaultChunkConfig()))
	assert.Nil(t, chunkText("   \n\t ", DefaultChunkConfig()))
}

func TestChunkText_SplitsLongText(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 50, MinChars: 20, Overlap: 10, MaxChunks: 40}
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)

	chunks := chunkText(text, cfg)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), cfg.MaxChars)
		assert.NotEmpty(t, c)
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 80, MinChars: 30, Overlap: 20, MaxChunks: 40}
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)

	first := chunkText(text, cfg)
	second := chunkText(text, cfg)

	assert.Equal(t, first, second)
}

func TestChunkText_MaxChunksBound(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 30, MinChars: 10, Overlap: 5, MaxChunks: 3}
	text := strings.Repeat("word ", 200)

	chunks := chunkText(text, cfg)

	assert.Len(t, chunks, 3)
}

func TestChunkText_BacksOffToWhitespace(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 20, MinChars: 5, Overlap: 0, MaxChunks: 40}
	text := "alpha beta gamma delta epsilon zeta eta theta"

	chunks := chunkText(text, cfg)

	for _, c := range chunks {
		assert.False(t, strings.HasSuffix(c, " "))
		// No chunk should start or end mid-word for this input.
		for _, w := range strings.Fields(c) {
			assert.Contains(t, text, w)
		}
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, "doc-1#0000", chunkID("doc-1", 0))
	assert.Equal(t, "doc-1#0012", chunkID("doc-1", 12))
	assert.Equal(t, chunkID("doc-2", 3), chunkID("doc-2", 3))
}
