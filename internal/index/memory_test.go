package index

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0, 0}, map[string]string{"title": "A"}))
	require.NoError(t, idx.Add(ctx, "b", []float32{0, 1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "c", []float32{0.9, 0.1, 0}, nil))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "c", matches[1].ID)
	assert.Equal(t, "A", matches[0].Metadata["title"])
}

func TestMemory_QueryMinScore(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	require.NoError(t, idx.Add(ctx, "near", []float32{1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "far", []float32{0, 1}, nil))

	matches, err := idx.Query(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].ID)
}

func TestMemory_TieBreakEarliestInsertion(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	// Identical vectors score identically against any query.
	require.NoError(t, idx.Add(ctx, "second-choice", []float32{1, 1}, nil))
	require.NoError(t, idx.Add(ctx, "later-twin", []float32{1, 1}, nil))

	matches, err := idx.Query(ctx, []float32{1, 1}, 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "second-choice", matches[0].ID)
	assert.Equal(t, "later-twin", matches[1].ID)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0, 0}, nil))

	err := idx.Add(ctx, "b", []float32{1, 0}, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Query(ctx, []float32{1, 0}, 1, 0)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeDimensionMismatch, domainErr.Code)
}

func TestMemory_FixedDimensions(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryWithDimensions(3)

	assert.Equal(t, 3, idx.Dimensions())
	err := idx.Add(ctx, "a", []float32{1, 0}, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.NoError(t, idx.Add(ctx, "a", []float32{1, 0, 0}, nil))
}

func TestMemory_AddReplacesEntry(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}, nil))
	require.NoError(t, idx.Add(ctx, "b", []float32{1, 0}, nil))
	// Replace "a" with a new vector; it must keep its insertion rank.
	require.NoError(t, idx.Add(ctx, "a", []float32{0.8, 0.6}, nil))

	assert.Equal(t, 2, idx.Len())

	matches, err := idx.Query(ctx, []float32{1, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].ID)
	assert.Equal(t, "a", matches[1].ID)
}

func TestMemory_Remove(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}, nil))
	require.NoError(t, idx.Remove(ctx, "a"))
	assert.Equal(t, 0, idx.Len())

	matches, err := idx.Query(ctx, []float32{1, 0}, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.ErrorIs(t, idx.Remove(ctx, "a"), domain.ErrEntryNotFound)
	assert.ErrorIs(t, idx.Remove(ctx, "missing"), domain.ErrEntryNotFound)
}

func TestMemory_QueryEmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryWithDimensions(2)

	matches, err := idx.Query(ctx, []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemory_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := NewMemory()
	assert.Error(t, idx.Add(ctx, "a", []float32{1}, nil))
	_, err := idx.Query(ctx, []float32{1}, 1, 0)
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
