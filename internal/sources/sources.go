// Package sources defines the external input contracts of the pipeline
// and file-backed adapters for them.
package sources

import (
	"context"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

// DocumentSource yields raw documents for one input channel (docs,
// backlog, or market). An unavailable source fails its Fetch; the
// pipeline degrades that source to empty context rather than aborting.
type DocumentSource interface {
	Name() string
	Fetch(ctx context.Context) ([]*domain.Document, error)
}

// ExistingIdeaSource yields the pre-existing idea baseline loaded once
// before a run.
type ExistingIdeaSource interface {
	Fetch(ctx context.Context) ([]*domain.ExistingIdea, error)
}
