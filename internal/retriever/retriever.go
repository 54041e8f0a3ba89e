// Package retriever turns raw documents into embedded text chunks and
// answers relevance queries over them.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/index"
	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Config controls retriever behavior
type Config struct {
	Chunking ChunkConfig
	// Workers bounds embedding concurrency across documents. Ingestion of
	// independent documents is I/O-bound on the embedding backend.
	Workers int
}

// DefaultConfig provides sane retriever defaults
func DefaultConfig() Config {
	return Config{
		Chunking: DefaultChunkConfig(),
		Workers:  4,
	}
}

// Retriever chunks and indexes documents and answers relevance queries
// against the chunk index.
type Retriever struct {
	client EmbeddingClient
	idx    index.Index
	cfg    Config

	mu       sync.Mutex
	docChunk map[string][]string // document id -> chunk ids currently indexed
}

// New creates a Retriever over the given chunk index
func New(client EmbeddingClient, idx index.Index, cfg Config) *Retriever {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.Chunking.MaxChars <= 0 {
		cfg.Chunking = DefaultChunkConfig()
	}
	return &Retriever{
		client:   client,
		idx:      idx,
		cfg:      cfg,
		docChunk: make(map[string][]string),
	}
}

// Ingest chunks, embeds, and indexes the given documents. Documents are
// processed concurrently up to the configured worker bound; chunks within
// one document are processed in order. A document whose embedding fails is
// reported in the returned error (joined) but does not abort siblings.
func (r *Retriever) Ingest(ctx context.Context, docs []*domain.Document) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	var mu sync.Mutex
	var ingestErrs []error

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if err := r.ingestOne(gctx, doc); err != nil {
				// Collect per-document failures without cancelling the group.
				mu.Lock()
				ingestErrs = append(ingestErrs, fmt.Errorf("document %s: %w", doc.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(ingestErrs...)
}

func (r *Retriever) ingestOne(ctx context.Context, doc *domain.Document) error {
	if err := domain.ValidateDocument(doc); err != nil {
		return err
	}

	texts := chunkText(doc.Text, r.cfg.Chunking)

	chunks := make([]domain.TextChunk, 0, len(texts))
	for i, text := range texts {
		embedding, err := r.client.GenerateEmbedding(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, domain.TextChunk{
			ID:         chunkID(doc.ID, i),
			DocumentID: doc.ID,
			Text:       text,
			Embedding:  embedding,
			Position:   i,
		})
	}

	return r.replaceChunks(ctx, doc, chunks)
}

// replaceChunks removes a document's prior chunks before adding new ones
// so stale chunks never contribute to retrieval after re-ingestion.
func (r *Retriever) replaceChunks(ctx context.Context, doc *domain.Document, chunks []domain.TextChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, oldID := range r.docChunk[doc.ID] {
		if err := r.idx.Remove(ctx, oldID); err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
			return fmt.Errorf("failed to remove stale chunk %s: %w", oldID, err)
		}
	}
	delete(r.docChunk, doc.ID)

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		metadata := map[string]string{
			"document_id": c.DocumentID,
			"source_type": string(doc.SourceType),
			"position":    strconv.Itoa(c.Position),
			"text":        c.Text,
		}
		if err := r.idx.Add(ctx, c.ID, c.Embedding, metadata); err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				log.Printf("skipping chunk %s: %v", c.ID, err)
				continue
			}
			return err
		}
		ids = append(ids, c.ID)
	}
	r.docChunk[doc.ID] = ids
	return nil
}

// Retrieve embeds the query and returns up to k relevant chunks ordered by
// similarity descending.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, k int, minScore float64) ([]domain.TextChunk, error) {
	embedding, err := r.client.GenerateEmbedding(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.idx.Query(ctx, embedding, k, minScore)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.TextChunk, 0, len(matches))
	for _, m := range matches {
		position, _ := strconv.Atoi(m.Metadata["position"])
		chunks = append(chunks, domain.TextChunk{
			ID:         m.ID,
			DocumentID: m.Metadata["document_id"],
			Text:       m.Metadata["text"],
			Position:   position,
		})
	}
	return chunks, nil
}
