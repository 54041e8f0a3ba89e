package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

// FileDocumentSource reads documents from a JSON file containing an array
// of {id, text} records. A missing file is treated as empty input, not an
// error.
type FileDocumentSource struct {
	name       string
	path       string
	sourceType domain.SourceType
}

// NewFileDocumentSource creates a file-backed document source
func NewFileDocumentSource(name, path string, sourceType domain.SourceType) *FileDocumentSource {
	return &FileDocumentSource{name: name, path: path, sourceType: sourceType}
}

// Name returns the source name used in failure reports
func (s *FileDocumentSource) Name() string {
	return s.name
}

type documentRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Fetch reads and decodes the backing file
func (s *FileDocumentSource) Fetch(ctx context.Context) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s source: %w", s.name, err)
	}

	var records []documentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s source: %w", s.name, err)
	}

	docs := make([]*domain.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, domain.NewDocument(r.ID, s.sourceType, r.Text))
	}
	return docs, nil
}

// FileIdeaSource reads existing ideas from a JSON file containing an
// array of {id, text, embedding, metadata} records.
type FileIdeaSource struct {
	path string
}

// NewFileIdeaSource creates a file-backed existing-idea source
func NewFileIdeaSource(path string) *FileIdeaSource {
	return &FileIdeaSource{path: path}
}

type ideaRecord struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"embedding,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Fetch reads and decodes the backing file. A missing file yields an
// empty baseline: a run against an empty corpus is legitimate.
func (s *FileIdeaSource) Fetch(ctx context.Context) ([]*domain.ExistingIdea, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read idea source: %w", err)
	}

	var records []ideaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode idea source: %w", err)
	}

	ideas := make([]*domain.ExistingIdea, 0, len(records))
	for _, r := range records {
		ideas = append(ideas, &domain.ExistingIdea{
			ID:        r.ID,
			Text:      r.Text,
			Embedding: r.Embedding,
			Metadata:  r.Metadata,
		})
	}
	return ideas, nil
}
