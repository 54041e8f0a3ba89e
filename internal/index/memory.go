package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

type memoryEntry struct {
	id       string
	vector   []float32
	metadata map[string]string
	seq      int64
	deleted  bool
}

// Memory is an in-memory brute-force cosine similarity index. Entries are
// kept in insertion order so equal-score ties resolve to the earliest
// inserted entry. Reads may run concurrently; writes take the exclusive
// lock, so a query started during a concurrent Add may or may not observe
// the new entry.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	nextSeq   int64
	entries   []memoryEntry
	byID      map[string]int
}

// NewMemory creates an empty in-memory index. The first Add establishes
// the index dimensionality.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

// NewMemoryWithDimensions creates an in-memory index with a fixed
// dimensionality established up front.
func NewMemoryWithDimensions(dimensions int) *Memory {
	return &Memory{dimension: dimensions, byID: make(map[string]int)}
}

// Add stores or replaces an entry. Replacing keeps the original insertion
// order position so tie-breaking stays stable across re-ingestion.
func (m *Memory) Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkDimensions(m.dimension, len(vector)); err != nil {
		return err
	}
	if m.dimension == 0 {
		m.dimension = len(vector)
	}

	if pos, ok := m.byID[id]; ok {
		m.entries[pos].vector = vector
		m.entries[pos].metadata = metadata
		m.entries[pos].deleted = false
		return nil
	}

	m.entries = append(m.entries, memoryEntry{
		id:       id,
		vector:   vector,
		metadata: metadata,
		seq:      m.nextSeq,
	})
	m.byID[id] = len(m.entries) - 1
	m.nextSeq++
	return nil
}

// Query returns up to k entries sorted by cosine similarity descending.
func (m *Memory) Query(ctx context.Context, vector []float32, k int, minScore float64) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := checkDimensions(m.dimension, len(vector)); err != nil {
		return nil, err
	}

	if k <= 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(m.entries))
	seqs := make(map[string]int64, len(m.entries))
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		score := cosineSimilarity(e.vector, vector)
		if score < minScore {
			continue
		}
		matches = append(matches, Match{ID: e.id, Score: score, Metadata: e.metadata})
		seqs[e.id] = e.seq
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return seqs[matches[i].ID] < seqs[matches[j].ID]
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Remove deletes an entry by id
func (m *Memory) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.byID[id]
	if !ok || m.entries[pos].deleted {
		return domain.ErrEntryNotFound
	}
	m.entries[pos].deleted = true
	return nil
}

// Len returns the number of live entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Dimensions returns the established dimensionality, 0 when empty
func (m *Memory) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimension
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
