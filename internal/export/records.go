// Package export renders pipeline run reports into portable artifacts
// (JSON, Markdown) and ships them to local files or object storage.
package export

import (
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
)

// IdeaRecord is the serializable form of a composed idea
type IdeaRecord struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Tags              []string  `json:"tags,omitempty"`
	BusinessValueNote string    `json:"business_value"`
	Confidence        float64   `json:"confidence"`
	SourceRefs        []string  `json:"source_refs,omitempty"`
	Classification    string    `json:"classification"`
	BestMatchID       string    `json:"best_match_id,omitempty"`
	SimilarityScore   float64   `json:"similarity_score,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// RunRecord is the serializable form of a run report
type RunRecord struct {
	RunID          string             `json:"run_id"`
	State          string             `json:"state"`
	PartialFailure bool               `json:"partial_failure"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Ideas          []IdeaRecord       `json:"ideas"`
	DiscardedCount int                `json:"discarded_count"`
	Failures       []pipeline.Failure `json:"failures"`
}

// NewIdeaRecord maps a composed idea to its export form
func NewIdeaRecord(idea *domain.ComposedIdea) IdeaRecord {
	return IdeaRecord{
		ID:                idea.ID,
		Title:             idea.Title,
		Description:       idea.Description,
		Tags:              idea.Tags,
		BusinessValueNote: idea.BusinessValueNote,
		Confidence:        idea.Confidence,
		SourceRefs:        idea.SourceRefs,
		Classification:    string(idea.Verdict.Classification),
		BestMatchID:       idea.Verdict.BestMatchID,
		SimilarityScore:   idea.Verdict.SimilarityScore,
		CreatedAt:         idea.CreatedAt,
	}
}

// NewRunRecord maps a run report to its export form
func NewRunRecord(report *pipeline.Report) RunRecord {
	ideas := make([]IdeaRecord, 0, len(report.Ideas))
	for _, idea := range report.Ideas {
		ideas = append(ideas, NewIdeaRecord(idea))
	}
	return RunRecord{
		RunID:          report.RunID,
		State:          string(report.State),
		PartialFailure: report.PartialFailure,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
		Ideas:          ideas,
		DiscardedCount: len(report.Discarded),
		Failures:       report.Failures,
	}
}
