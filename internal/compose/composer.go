// Package compose finalizes surviving idea candidates into stable,
// exportable records and registers them in the idea corpus.
package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/index"
	"github.com/google/uuid"
)

// IDGenerator defines the interface for generating idea identifiers
type IDGenerator interface {
	NewID() string
}

// DefaultUUIDGenerator generates random UUIDs, unique across the run and
// the pre-loaded corpus without coordination.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Composer merges a surviving candidate with its dedup verdict into a
// finalized ComposedIdea and registers it into the corpus index.
type Composer struct {
	corpus index.Index
	ids    IDGenerator
	now    func() time.Time
}

// NewComposer creates a Composer over the given corpus index
func NewComposer(corpus index.Index, ids IDGenerator) *Composer {
	if ids == nil {
		ids = &DefaultUUIDGenerator{}
	}
	return &Composer{
		corpus: corpus,
		ids:    ids,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewComposerWithClock creates a Composer with an injected clock
func NewComposerWithClock(corpus index.Index, ids IDGenerator, now func() time.Time) *Composer {
	c := NewComposer(corpus, ids)
	c.now = now
	return c
}

// Compose finalizes a candidate. It must only be called for candidates not
// classified Duplicate. The composed idea is registered into the corpus
// index before Compose returns, so the next candidate in the batch is
// deduplicated against it.
func (c *Composer) Compose(ctx context.Context, candidate *domain.IdeaCandidate, verdict *domain.DedupVerdict) (*domain.ComposedIdea, error) {
	if err := domain.ValidateIdeaCandidate(candidate); err != nil {
		return nil, err
	}
	if verdict == nil {
		return nil, fmt.Errorf("verdict cannot be nil")
	}
	if verdict.Classification == domain.ClassificationDuplicate {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidOperation,
			"duplicate candidates are discarded, not composed")
	}

	idea := &domain.ComposedIdea{
		ID:                c.ids.NewID(),
		Title:             candidate.Title,
		Description:       candidate.Description,
		Tags:              candidate.Tags,
		BusinessValueNote: candidate.BusinessValueNote,
		Confidence:        candidate.Confidence,
		SourceRefs:        candidate.SourceRefs,
		Verdict:           *verdict,
		CreatedAt:         c.now(),
	}

	metadata := map[string]string{
		"title":          idea.Title,
		"classification": string(idea.Verdict.Classification),
	}
	if err := c.corpus.Add(ctx, idea.ID, candidate.Embedding, metadata); err != nil {
		return nil, fmt.Errorf("failed to register composed idea in corpus: %w", err)
	}

	return idea, nil
}
