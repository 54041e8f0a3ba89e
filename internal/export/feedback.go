package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

// Rating is one reviewer score for a composed idea, on a 1-5 scale
type Rating struct {
	IdeaID  string    `json:"id"`
	Value   int       `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}

// FeedbackStore collects idea ratings and persists them to a JSON file.
// The file is rewritten on every change; rating the same idea again
// replaces the earlier score.
type FeedbackStore struct {
	mu      sync.Mutex
	path    string
	ratings map[string]Rating
	now     func() time.Time
}

// NewFeedbackStore opens (or creates) a feedback store backed by path
func NewFeedbackStore(path string) (*FeedbackStore, error) {
	store := &FeedbackStore{
		path:    path,
		ratings: make(map[string]Rating),
		now:     func() time.Time { return time.Now().UTC() },
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}

	var ratings []Rating
	if err := json.Unmarshal(data, &ratings); err != nil {
		return nil, fmt.Errorf("failed to decode feedback file: %w", err)
	}
	for _, r := range ratings {
		store.ratings[r.IdeaID] = r
	}
	return store, nil
}

// Rate records a score for an idea. Scores outside 1-5 are rejected.
func (s *FeedbackStore) Rate(ideaID string, value int) error {
	if ideaID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "idea id is required")
	}
	if value < 1 || value > 5 {
		return domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("rating must be between 1 and 5, got %d", value))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings[ideaID] = Rating{IdeaID: ideaID, Value: value, RatedAt: s.now()}
	return s.flushLocked()
}

// List returns all recorded ratings ordered by idea id
func (s *FeedbackStore) List() []Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *FeedbackStore) sortedLocked() []Rating {
	ratings := make([]Rating, 0, len(s.ratings))
	for _, r := range s.ratings {
		ratings = append(ratings, r)
	}
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].IdeaID < ratings[j].IdeaID
	})
	return ratings
}

func (s *FeedbackStore) flushLocked() error {
	data, err := json.MarshalIndent(s.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create feedback directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write feedback file: %w", err)
	}
	return nil
}
