// Package corpus loads the pre-existing idea baseline into the idea
// corpus index before a run.
package corpus

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/index"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Loader seeds the corpus index with existing ideas. Ideas supplied with
// only text are embedded on load.
type Loader struct {
	client EmbeddingClient
	corpus index.Index
}

// NewLoader creates a corpus loader over the given index
func NewLoader(client EmbeddingClient, corpus index.Index) *Loader {
	return &Loader{client: client, corpus: corpus}
}

// Load registers every existing idea into the corpus index. Any failure
// here is a CorpusLoadError: without a complete baseline the dedup
// guarantee cannot hold, so the run must not proceed.
func (l *Loader) Load(ctx context.Context, ideas []*domain.ExistingIdea) error {
	for _, idea := range ideas {
		if idea == nil || idea.ID == "" {
			return domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad,
				"existing idea is missing an id", domain.ErrCorpusLoad)
		}

		embedding := idea.Embedding
		if len(embedding) == 0 {
			if idea.Text == "" {
				return domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad,
					fmt.Sprintf("existing idea %s has neither embedding nor text", idea.ID),
					domain.ErrCorpusLoad)
			}
			var err error
			embedding, err = l.client.GenerateEmbedding(ctx, idea.Text)
			if err != nil {
				return domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad,
					fmt.Sprintf("failed to embed existing idea %s", idea.ID), err)
			}
		}

		if err := l.corpus.Add(ctx, idea.ID, embedding, idea.Metadata); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad,
				fmt.Sprintf("failed to index existing idea %s", idea.ID), err)
		}
	}
	return nil
}

// Summaries returns short text summaries of existing ideas for the
// generation prompt.
func Summaries(ideas []*domain.ExistingIdea) []string {
	summaries := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if idea == nil {
			continue
		}
		summary := idea.Text
		if summary == "" {
			summary = idea.Metadata["title"]
		}
		if summary == "" {
			summary = idea.ID
		}
		const maxSummaryChars = 200
		if len(summary) > maxSummaryChars {
			summary = summary[:maxSummaryChars]
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
