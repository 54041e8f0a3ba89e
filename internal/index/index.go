// Package index provides vector index backends for chunk retrieval and
// idea corpus deduplication.
package index

import (
	"context"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

// Match is a single query result, ordered by similarity
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Index stores fixed-dimension vectors with metadata and answers
// nearest-neighbor queries by cosine similarity. Add stores or replaces an
// entry; Query returns up to k entries sorted by similarity descending,
// ties broken by earliest insertion, entries below minScore excluded.
type Index interface {
	Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Query(ctx context.Context, vector []float32, k int, minScore float64) ([]Match, error)
	Remove(ctx context.Context, id string) error
}

// checkDimensions validates a vector against the index's established
// dimensionality. A zero established dimensionality means the index is
// empty and the vector sets it.
func checkDimensions(established, got int) error {
	if got == 0 {
		return domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			"vector cannot be empty", domain.ErrDimensionMismatch)
	}
	if established != 0 && established != got {
		return domain.ErrDimensionMismatch
	}
	return nil
}
