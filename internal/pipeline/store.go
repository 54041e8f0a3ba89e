package pipeline

import (
	"sort"
	"sync"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/pagination"
)

// Store keeps completed run reports in memory for the API to serve.
// Reports are immutable once saved.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Report
}

// NewStore creates an empty run store
func NewStore() *Store {
	return &Store{runs: make(map[string]*Report)}
}

// Save records a run report
func (s *Store) Save(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[report.RunID] = report
}

// Get returns the report for a run id
func (s *Store) Get(runID string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return report, nil
}

// List returns all reports ordered by start time, newest first
func (s *Store) List() []*Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]*Report, 0, len(s.runs))
	for _, r := range s.runs {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports
}

// ListPage returns one page of reports, newest first. The cursor points
// at the last report of the previous page; a nil cursor starts from the
// newest report.
func (s *Store) ListPage(cursor *pagination.Cursor, limit int) ([]*Report, string, bool) {
	if limit <= 0 {
		limit = 20
	}

	reports := s.List()
	if cursor != nil {
		start := len(reports)
		for i, r := range reports {
			if r.RunID == cursor.LastID {
				start = i + 1
				break
			}
			if r.StartedAt.Before(cursor.Timestamp) {
				start = i
				break
			}
		}
		reports = reports[start:]
	}

	hasMore := len(reports) > limit
	if hasMore {
		reports = reports[:limit]
	}

	var nextCursor string
	if hasMore {
		last := reports[len(reports)-1]
		nextCursor = pagination.EncodeCursor(last.RunID, last.StartedAt)
	}
	return reports, nextCursor, hasMore
}

// Ideas returns every composed idea across all stored runs, newest run
// first.
func (s *Store) Ideas() []*domain.ComposedIdea {
	var ideas []*domain.ComposedIdea
	for _, report := range s.List() {
		ideas = append(ideas, report.Ideas...)
	}
	return ideas
}

// RunIdeas returns the composed ideas of one run
func (s *Store) RunIdeas(runID string) ([]*domain.ComposedIdea, error) {
	report, err := s.Get(runID)
	if err != nil {
		return nil, err
	}
	return report.Ideas, nil
}
