package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder derives a deterministic vector from text so tests can
// reason about similarity without a live backend.
type stubEmbedder struct {
	failFor map[string]error
}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err, ok := s.failFor[text]; ok {
		return nil, err
	}
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r) / 1000
	}
	return v, nil
}

func newTestRetriever() (*Retriever, *index.Memory) {
	idx := index.NewMemory()
	cfg := Config{
		Chunking: ChunkConfig{MaxChars: 60, MinChars: 20, Overlap: 10, MaxChunks: 40},
		Workers:  2,
	}
	return New(&stubEmbedder{}, idx, cfg), idx
}

func TestRetriever_IngestAndRetrieve(t *testing.T) {
	ctx := context.Background()
	r, idx := newTestRetriever()

	docs := []*domain.Document{
		domain.NewDocument("doc-1", domain.SourceTypeDoc, "users ask for exports of their dashboards"),
		domain.NewDocument("jira-9", domain.SourceTypeBacklog, "ticket about slow search results on mobile"),
	}

	require.NoError(t, r.Ingest(ctx, docs))
	assert.Equal(t, 2, idx.Len())

	chunks, err := r.Retrieve(ctx, "users ask for exports of their dashboards", 1, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, "doc-1#0000", chunks[0].ID)
	assert.Contains(t, chunks[0].Text, "exports")
}

func TestRetriever_ReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	r, idx := newTestRetriever()

	long := strings.Repeat("alpha beta gamma delta ", 10)
	doc := domain.NewDocument("doc-1", domain.SourceTypeDoc, long)
	require.NoError(t, r.Ingest(ctx, []*domain.Document{doc}))
	countBefore := idx.Len()
	require.Greater(t, countBefore, 1)

	// Re-ingest with much shorter text; stale chunks must disappear.
	doc2 := domain.NewDocument("doc-1", domain.SourceTypeDoc, "alpha beta")
	require.NoError(t, r.Ingest(ctx, []*domain.Document{doc2}))
	assert.Equal(t, 1, idx.Len())
}

func TestRetriever_ChunkDeterminism(t *testing.T) {
	ctx := context.Background()
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 5)

	collect := func() []domain.TextChunk {
		r, _ := newTestRetriever()
		doc := domain.NewDocument("doc-1", domain.SourceTypeDoc, text)
		require.NoError(t, r.Ingest(ctx, []*domain.Document{doc}))
		chunks, err := r.Retrieve(ctx, text, 10, -1)
		require.NoError(t, err)
		return chunks
	}

	first := collect()
	second := collect()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestRetriever_FailedDocumentDoesNotAbortSiblings(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	embedder := &stubEmbedder{failFor: map[string]error{
		"broken document": errors.New("embedding timeout"),
	}}
	r := New(embedder, idx, Config{
		Chunking: ChunkConfig{MaxChars: 60, MinChars: 20, Overlap: 10},
		Workers:  1,
	})

	docs := []*domain.Document{
		domain.NewDocument("bad", domain.SourceTypeMarket, "broken document"),
		domain.NewDocument("good", domain.SourceTypeDoc, "healthy document"),
	}

	err := r.Ingest(ctx, docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// The healthy document is still retrievable.
	chunks, rerr := r.Retrieve(ctx, "healthy document", 1, 0)
	require.NoError(t, rerr)
	require.Len(t, chunks, 1)
	assert.Equal(t, "good", chunks[0].DocumentID)
}

func TestRetriever_InvalidDocumentRejected(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRetriever()

	err := r.Ingest(ctx, []*domain.Document{domain.NewDocument("", domain.SourceTypeDoc, "x")})
	assert.Error(t, err)
}

func TestRetriever_RetrieveEmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemoryWithDimensions(4)
	r := New(&stubEmbedder{}, idx, DefaultConfig())

	chunks, err := r.Retrieve(ctx, "anything", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
