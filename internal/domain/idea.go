package domain

import (
	"fmt"
	"time"
)

// SourceType identifies where a document came from
type SourceType string

const (
	SourceTypeDoc     SourceType = "doc"
	SourceTypeBacklog SourceType = "backlog"
	SourceTypeMarket  SourceType = "market"
)

// Document is a raw input document, immutable once ingested within a run
type Document struct {
	ID         string
	SourceType SourceType
	Text       string
}

// TextChunk is a bounded slice of a document's text, the unit of
// retrieval indexing. Owned exclusively by its document.
type TextChunk struct {
	ID         string
	DocumentID string
	Text       string
	Embedding  []float32
	Position   int
}

// StrategicGoal is a run input supplied by the caller, read-only
type StrategicGoal struct {
	ID   string
	Text string
}

// IdeaCandidate is a not-yet-finalized idea produced by the reasoning
// step, transient until composed or discarded.
type IdeaCandidate struct {
	ID                string
	Title             string
	Description       string
	Tags              []string
	BusinessValueNote string
	Confidence        float64
	SourceRefs        []string
	Embedding         []float32
}

// ExistingIdea is a pre-existing backlog entry loaded at run start as
// the deduplication baseline. Read-only to the pipeline.
type ExistingIdea struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Classification is the dedup verdict class for a candidate
type Classification string

const (
	ClassificationNovel          Classification = "novel"
	ClassificationDuplicate      Classification = "duplicate"
	ClassificationMergeCandidate Classification = "merge_candidate"
)

// DedupVerdict records how a candidate compared against the idea corpus
type DedupVerdict struct {
	CandidateID     string
	BestMatchID     string // empty when no corpus entry cleared the merge threshold
	SimilarityScore float64
	Classification  Classification
}

// ComposedIdea is the terminal, exported entity. Once created it is
// registered into the idea corpus so later candidates in the same run
// are checked against it.
type ComposedIdea struct {
	ID                string
	Title             string
	Description       string
	Tags              []string
	BusinessValueNote string
	Confidence        float64
	SourceRefs        []string
	Verdict           DedupVerdict
	CreatedAt         time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id string, sourceType SourceType, text string) *Document {
	return &Document{
		ID:         id,
		SourceType: sourceType,
		Text:       text,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if !isValidSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}

	return nil
}

// ValidateIdeaCandidate validates an IdeaCandidate instance
func ValidateIdeaCandidate(c *IdeaCandidate) error {
	if c == nil {
		return fmt.Errorf("idea candidate cannot be nil")
	}

	if c.Title == "" {
		return fmt.Errorf("idea candidate Title is required")
	}

	if c.Description == "" {
		return fmt.Errorf("idea candidate Description is required")
	}

	if c.BusinessValueNote == "" {
		return fmt.Errorf("idea candidate BusinessValueNote is required")
	}

	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("idea candidate Confidence must be in [0,1]: %f", c.Confidence)
	}

	return nil
}

// ValidateDedupVerdict validates a DedupVerdict instance
func ValidateDedupVerdict(v *DedupVerdict) error {
	if v == nil {
		return fmt.Errorf("dedup verdict cannot be nil")
	}

	if v.CandidateID == "" {
		return fmt.Errorf("dedup verdict CandidateID is required")
	}

	if !isValidClassification(v.Classification) {
		return fmt.Errorf("dedup verdict Classification is invalid: %s", v.Classification)
	}

	if v.SimilarityScore < -1 || v.SimilarityScore > 1 {
		return fmt.Errorf("dedup verdict SimilarityScore must be in [-1,1]: %f", v.SimilarityScore)
	}

	if v.Classification != ClassificationNovel && v.BestMatchID == "" {
		return fmt.Errorf("dedup verdict BestMatchID is required for classification %s", v.Classification)
	}

	return nil
}

// isValidSourceType checks if a SourceType is valid
func isValidSourceType(s SourceType) bool {
	switch s {
	case SourceTypeDoc, SourceTypeBacklog, SourceTypeMarket:
		return true
	}
	return false
}

// isValidClassification checks if a Classification is valid
func isValidClassification(c Classification) bool {
	switch c {
	case ClassificationNovel, ClassificationDuplicate, ClassificationMergeCandidate:
		return true
	}
	return false
}
