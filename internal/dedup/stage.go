// Package dedup classifies idea candidates against the idea corpus index.
package dedup

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/index"
)

// Thresholds configure classification cut-offs on cosine similarity.
// Duplicate must be >= Merge; anything below Merge is Novel.
type Thresholds struct {
	Duplicate float64
	Merge     float64
}

// DefaultThresholds provides the design-default classification thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Duplicate: 0.92,
		Merge:     0.80,
	}
}

// Validate checks threshold monotonicity
func (t Thresholds) Validate() error {
	if t.Duplicate < t.Merge {
		return domain.ErrInvalidThresholds
	}
	if t.Duplicate > 1 || t.Merge < -1 {
		return fmt.Errorf("thresholds must lie within cosine similarity range [-1,1]")
	}
	return nil
}

// Stage queries the idea corpus for each candidate and classifies it.
// The corpus index is passed in explicitly: it is the single mutable
// resource of the dedup/compose phase and callers own its sequencing.
type Stage struct {
	corpus     index.Index
	thresholds Thresholds
}

// NewStage creates a dedup stage over the given corpus index
func NewStage(corpus index.Index, thresholds Thresholds) (*Stage, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Stage{corpus: corpus, thresholds: thresholds}, nil
}

// Classify queries the corpus with the candidate's embedding (k=1, the
// merge threshold as floor) and classifies the candidate:
//
//	no match above Merge          -> Novel
//	score >= Duplicate            -> Duplicate (candidate is discarded)
//	score in [Merge, Duplicate)   -> MergeCandidate (composed, flagged)
//
// Classification is read-only over the corpus: submitting the same
// embedding twice against an unchanged corpus yields the same verdict.
func (s *Stage) Classify(ctx context.Context, candidate *domain.IdeaCandidate) (*domain.DedupVerdict, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate cannot be nil")
	}
	if len(candidate.Embedding) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			"candidate has no embedding", domain.ErrDimensionMismatch)
	}

	matches, err := s.corpus.Query(ctx, candidate.Embedding, 1, s.thresholds.Merge)
	if err != nil {
		return nil, fmt.Errorf("corpus query failed: %w", err)
	}

	verdict := &domain.DedupVerdict{
		CandidateID:    candidate.ID,
		Classification: domain.ClassificationNovel,
	}

	if len(matches) == 0 {
		return verdict, nil
	}

	best := matches[0]
	verdict.BestMatchID = best.ID
	verdict.SimilarityScore = best.Score

	if best.Score >= s.thresholds.Duplicate {
		verdict.Classification = domain.ClassificationDuplicate
	} else {
		verdict.Classification = domain.ClassificationMergeCandidate
	}

	return verdict, nil
}

// Thresholds returns the stage's configured thresholds
func (s *Stage) Thresholds() Thresholds {
	return s.thresholds
}
