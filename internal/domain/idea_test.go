package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr bool
	}{
		{
			name:    "valid doc",
			doc:     NewDocument("doc-1", SourceTypeDoc, "release notes"),
			wantErr: false,
		},
		{
			name:    "valid backlog doc",
			doc:     NewDocument("PROJ-42", SourceTypeBacklog, "ticket body"),
			wantErr: false,
		},
		{
			name:    "empty text is allowed",
			doc:     NewDocument("doc-2", SourceTypeMarket, ""),
			wantErr: false,
		},
		{
			name:    "missing id",
			doc:     NewDocument("", SourceTypeDoc, "text"),
			wantErr: true,
		},
		{
			name:    "invalid source type",
			doc:     NewDocument("doc-3", SourceType("wiki"), "text"),
			wantErr: true,
		},
		{
			name:    "nil doc",
			doc:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIdeaCandidate(t *testing.T) {
	valid := func() *IdeaCandidate {
		return &IdeaCandidate{
			ID:                "cand-1",
			Title:             "Self-serve onboarding",
			Description:       "Let new orgs set up without a sales call",
			Tags:              []string{"growth"},
			BusinessValueNote: "Shortens sales cycle",
			Confidence:        0.8,
		}
	}

	t.Run("valid candidate", func(t *testing.T) {
		assert.NoError(t, ValidateIdeaCandidate(valid()))
	})

	t.Run("missing title", func(t *testing.T) {
		c := valid()
		c.Title = ""
		assert.Error(t, ValidateIdeaCandidate(c))
	})

	t.Run("missing description", func(t *testing.T) {
		c := valid()
		c.Description = ""
		assert.Error(t, ValidateIdeaCandidate(c))
	})

	t.Run("missing business value note", func(t *testing.T) {
		c := valid()
		c.BusinessValueNote = ""
		assert.Error(t, ValidateIdeaCandidate(c))
	})

	t.Run("confidence out of range", func(t *testing.T) {
		c := valid()
		c.Confidence = 1.5
		assert.Error(t, ValidateIdeaCandidate(c))
	})

	t.Run("nil candidate", func(t *testing.T) {
		assert.Error(t, ValidateIdeaCandidate(nil))
	})
}

func TestValidateDedupVerdict(t *testing.T) {
	t.Run("novel without match", func(t *testing.T) {
		v := &DedupVerdict{
			CandidateID:     "cand-1",
			SimilarityScore: 0.3,
			Classification:  ClassificationNovel,
		}
		assert.NoError(t, ValidateDedupVerdict(v))
	})

	t.Run("duplicate requires best match", func(t *testing.T) {
		v := &DedupVerdict{
			CandidateID:     "cand-1",
			SimilarityScore: 0.95,
			Classification:  ClassificationDuplicate,
		}
		assert.Error(t, ValidateDedupVerdict(v))

		v.BestMatchID = "idea-7"
		assert.NoError(t, ValidateDedupVerdict(v))
	})

	t.Run("score out of range", func(t *testing.T) {
		v := &DedupVerdict{
			CandidateID:     "cand-1",
			SimilarityScore: 1.2,
			Classification:  ClassificationNovel,
		}
		assert.Error(t, ValidateDedupVerdict(v))
	})

	t.Run("invalid classification", func(t *testing.T) {
		v := &DedupVerdict{
			CandidateID:     "cand-1",
			SimilarityScore: 0.5,
			Classification:  Classification("maybe"),
		}
		assert.Error(t, ValidateDedupVerdict(v))
	})
}

func TestDomainError(t *testing.T) {
	t.Run("error without cause", func(t *testing.T) {
		err := NewDomainError(ErrCodeCorpusLoad, "corpus unavailable")
		assert.Equal(t, "[CORPUS_LOAD] corpus unavailable", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewDomainErrorWithCause(ErrCodeTransientExternal, "embedding call failed", cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})
}
