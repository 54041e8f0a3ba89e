package index

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Pgvector is a Postgres-backed Index using the pgvector extension. It is
// the persistent corpus backend: an idea corpus stored here survives
// across runs, while the in-memory backend only lives for one.
//
// Entries carry a monotonically increasing sequence number so equal-score
// ties resolve to the earliest insertion, matching the in-memory backend.
type Pgvector struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
}

// NewPgvector creates a Postgres-backed index over the given table. The
// table must exist (see migrations) with columns
// (id text primary key, embedding vector, metadata jsonb, seq bigserial).
func NewPgvector(pool *pgxpool.Pool, table string, dimensions int) *Pgvector {
	return &Pgvector{
		pool:       pool,
		table:      table,
		dimensions: dimensions,
	}
}

// Add stores or replaces an entry
func (p *Pgvector) Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if err := checkDimensions(p.dimensions, len(vector)); err != nil {
		return err
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
		p.table)

	if _, err := p.pool.Exec(ctx, query, id, pgvector.NewVector(vector), metadata); err != nil {
		return fmt.Errorf("failed to upsert index entry: %w", err)
	}
	return nil
}

// Query returns up to k entries by cosine similarity descending. pgvector's
// <=> operator yields cosine distance, so similarity = 1 - distance.
func (p *Pgvector) Query(ctx context.Context, vector []float32, k int, minScore float64) ([]Match, error) {
	if err := checkDimensions(p.dimensions, len(vector)); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Match{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, 1.0 - (embedding <=> $1) AS score, metadata
		FROM %s
		WHERE 1.0 - (embedding <=> $1) >= $2
		ORDER BY score DESC, seq ASC
		LIMIT $3`,
		p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), minScore, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Score, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan index match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index matches: %w", err)
	}
	return matches, nil
}

// Remove deletes an entry by id
func (p *Pgvector) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.table)
	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}
