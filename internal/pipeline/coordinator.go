// Package pipeline sequences retrieval, generation, deduplication, and
// composition into a single run and tolerates partial failures across
// independent input sources.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/corpus"
	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/reasoning"
	"github.com/cloo-solutions/ideaforge/internal/sources"
	"github.com/cloo-solutions/ideaforge/internal/telemetry"
	"github.com/google/uuid"
)

// State represents a pipeline run state
type State string

const (
	StateLoading       State = "loading"
	StateRetrieving    State = "retrieving"
	StateGenerating    State = "generating"
	StateDeduplicating State = "deduplicating"
	StateComposing     State = "composing"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// Failure is one recorded unit-of-work failure inside a run
type Failure struct {
	Stage   string `json:"stage"`
	Unit    string `json:"unit"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report is the outcome of one pipeline run: the composed batch plus the
// accumulated failure record.
type Report struct {
	RunID          string                 `json:"run_id"`
	State          State                  `json:"state"`
	PartialFailure bool                   `json:"partial_failure"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
	Ideas          []*domain.ComposedIdea `json:"ideas"`
	Discarded      []*domain.DedupVerdict `json:"discarded"`
	Failures       []Failure              `json:"failures"`
}

// Retriever is the document retrieval dependency
type Retriever interface {
	Ingest(ctx context.Context, docs []*domain.Document) error
	Retrieve(ctx context.Context, queryText string, k int, minScore float64) ([]domain.TextChunk, error)
}

// Generator is the reasoning dependency
type Generator interface {
	Generate(ctx context.Context, req reasoning.Request) ([]*domain.IdeaCandidate, error)
}

// Classifier is the deduplication dependency
type Classifier interface {
	Classify(ctx context.Context, candidate *domain.IdeaCandidate) (*domain.DedupVerdict, error)
}

// Composer is the composition dependency
type Composer interface {
	Compose(ctx context.Context, candidate *domain.IdeaCandidate, verdict *domain.DedupVerdict) (*domain.ComposedIdea, error)
}

// CorpusLoader seeds the dedup baseline
type CorpusLoader interface {
	Load(ctx context.Context, ideas []*domain.ExistingIdea) error
}

// EmbeddingClient embeds candidate text for dedup queries
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Config holds per-run tunables
type Config struct {
	Goals             []domain.StrategicGoal
	RetrievalK        int
	RetrievalMinScore float64
	DesiredCount      int
}

// Coordinator wires the pipeline stages together. The idea corpus index is
// owned by the classifier and composer it is constructed with; the
// coordinator enforces the strictly sequential dedup/compose discipline
// over it.
type Coordinator struct {
	docSources []sources.DocumentSource
	ideaSource sources.ExistingIdeaSource
	loader     CorpusLoader
	retriever  Retriever
	engine     Generator
	stage      Classifier
	composer   Composer
	embedder   EmbeddingClient
	cfg        Config
}

// NewCoordinator creates a pipeline coordinator
func NewCoordinator(
	docSources []sources.DocumentSource,
	ideaSource sources.ExistingIdeaSource,
	loader CorpusLoader,
	retr Retriever,
	engine Generator,
	stage Classifier,
	composer Composer,
	embedder EmbeddingClient,
	cfg Config,
) *Coordinator {
	if cfg.RetrievalK <= 0 {
		cfg.RetrievalK = 8
	}
	if cfg.DesiredCount <= 0 {
		cfg.DesiredCount = 3
	}
	return &Coordinator{
		docSources: docSources,
		ideaSource: ideaSource,
		loader:     loader,
		retriever:  retr,
		engine:     engine,
		stage:      stage,
		composer:   composer,
		embedder:   embedder,
		cfg:        cfg,
	}
}

// Run executes one pipeline run with the configured goals
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	return c.RunWithGoals(ctx, c.cfg.Goals)
}

// RunWithGoals executes one pipeline run. It returns a report in every
// non-error case; the error return is reserved for hard failures (corpus
// load, cancellation), where the report still describes how far the run
// got.
func (c *Coordinator) RunWithGoals(ctx context.Context, goals []domain.StrategicGoal) (*Report, error) {
	if len(goals) == 0 {
		goals = c.cfg.Goals
	}
	report := &Report{
		RunID:     uuid.NewString(),
		State:     StateLoading,
		StartedAt: time.Now().UTC(),
		Ideas:     []*domain.ComposedIdea{},
		Discarded: []*domain.DedupVerdict{},
		Failures:  []Failure{},
	}

	ctx, span := telemetry.StartSpan(ctx, "pipeline.run", telemetry.SpanAttributes{RunID: report.RunID})
	defer span.End()

	existing, err := c.loadCorpus(ctx, report)
	if err != nil {
		span.SetError(err)
		return c.finish(report, StateFailed), err
	}

	chunks, err := c.retrieve(ctx, report, goals)
	if err != nil {
		span.SetError(err)
		return c.finish(report, StateFailed), err
	}

	candidates, err := c.generate(ctx, report, goals, chunks, existing)
	if err != nil {
		span.SetError(err)
		return c.finish(report, StateFailed), err
	}

	if err := c.dedupAndCompose(ctx, report, candidates); err != nil {
		span.SetError(err)
		return c.finish(report, StateFailed), err
	}

	return c.finish(report, StateCompleted), nil
}

func (c *Coordinator) finish(report *Report, state State) *Report {
	report.State = state
	report.FinishedAt = time.Now().UTC()
	return report
}

// loadCorpus loads the existing-idea baseline. Failure here is the only
// hard-fail path besides cancellation: composing without a dedup baseline
// would violate the duplicate-prevention guarantee.
func (c *Coordinator) loadCorpus(ctx context.Context, report *Report) ([]*domain.ExistingIdea, error) {
	report.State = StateLoading
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := c.ideaSource.Fetch(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad,
			"failed to fetch existing ideas", err)
	}

	if err := c.loader.Load(ctx, existing); err != nil {
		return nil, err
	}

	log.Printf("run %s: loaded %d existing ideas into corpus", report.RunID, len(existing))
	return existing, nil
}

// retrieve fetches and ingests every document source, degrading failed
// sources to empty context, then retrieves the generation context.
func (c *Coordinator) retrieve(ctx context.Context, report *Report, goals []domain.StrategicGoal) ([]domain.TextChunk, error) {
	report.State = StateRetrieving

	var docs []*domain.Document
	for _, source := range c.docSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetched, err := source.Fetch(ctx)
		if err != nil {
			report.PartialFailure = true
			report.Failures = append(report.Failures, Failure{
				Stage:   string(StateLoading),
				Unit:    source.Name(),
				Code:    domain.ErrCodeTransientExternal,
				Message: err.Error(),
			})
			log.Printf("run %s: source %s unavailable, continuing without it: %v",
				report.RunID, source.Name(), err)
			continue
		}
		docs = append(docs, fetched...)
	}

	if err := c.retriever.Ingest(ctx, docs); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Per-document failures: the remaining documents are indexed.
		report.PartialFailure = true
		report.Failures = append(report.Failures, Failure{
			Stage:   string(StateRetrieving),
			Unit:    "ingest",
			Code:    domain.ErrCodeTransientExternal,
			Message: err.Error(),
		})
	}

	query := retrievalQuery(goals)
	chunks, err := c.retriever.Retrieve(ctx, query, c.cfg.RetrievalK, c.cfg.RetrievalMinScore)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.PartialFailure = true
		report.Failures = append(report.Failures, Failure{
			Stage:   string(StateRetrieving),
			Unit:    "retrieve",
			Code:    domain.ErrCodeTransientExternal,
			Message: err.Error(),
		})
		return nil, nil
	}
	return chunks, nil
}

func retrievalQuery(goals []domain.StrategicGoal) string {
	parts := make([]string, 0, len(goals))
	for _, g := range goals {
		parts = append(parts, g.Text)
	}
	if len(parts) == 0 {
		return "product roadmap opportunities"
	}
	return strings.Join(parts, "\n")
}

// generate runs the reasoning batch. A failed batch is recorded and the
// run continues with zero candidates.
func (c *Coordinator) generate(ctx context.Context, report *Report, goals []domain.StrategicGoal, chunks []domain.TextChunk, existing []*domain.ExistingIdea) ([]*domain.IdeaCandidate, error) {
	report.State = StateGenerating
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := c.engine.Generate(ctx, reasoning.Request{
		Goals:                 goals,
		Context:               chunks,
		ExistingIdeaSummaries: corpus.Summaries(existing),
		DesiredCount:          c.cfg.DesiredCount,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Failures = append(report.Failures, Failure{
			Stage:   string(StateGenerating),
			Unit:    "batch",
			Code:    domain.ErrCodeSchemaValidation,
			Message: err.Error(),
		})
		log.Printf("run %s: generation failed for batch: %v", report.RunID, err)
		return nil, nil
	}

	// Assign candidate ids and embed for dedup. An embedding failure
	// skips that candidate only.
	usable := make([]*domain.IdeaCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate.ID = fmt.Sprintf("%s-cand-%d", report.RunID, i)

		embedding, err := c.embedder.GenerateEmbedding(ctx, candidateEmbeddingText(candidate))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Failures = append(report.Failures, Failure{
				Stage:   string(StateGenerating),
				Unit:    candidate.ID,
				Code:    domain.ErrCodeTransientExternal,
				Message: fmt.Sprintf("failed to embed candidate: %v", err),
			})
			continue
		}
		candidate.Embedding = embedding
		usable = append(usable, candidate)
	}

	return usable, nil
}

func candidateEmbeddingText(c *domain.IdeaCandidate) string {
	var parts []string
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	return strings.Join(parts, "\n\n")
}

// dedupAndCompose processes candidates strictly sequentially: each one is
// queried, classified, and (unless Duplicate) composed and registered
// before the next candidate's query begins. Parallelizing this loop would
// let two near-duplicate candidates both observe "no prior match".
func (c *Coordinator) dedupAndCompose(ctx context.Context, report *Report, candidates []*domain.IdeaCandidate) error {
	report.State = StateDeduplicating

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		verdict, err := c.stage.Classify(ctx, candidate)
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				Stage:   string(StateDeduplicating),
				Unit:    candidate.ID,
				Code:    domain.ErrCodeDimensionMismatch,
				Message: err.Error(),
			})
			log.Printf("run %s: skipping candidate %s: %v", report.RunID, candidate.ID, err)
			continue
		}

		if verdict.Classification == domain.ClassificationDuplicate {
			report.Discarded = append(report.Discarded, verdict)
			log.Printf("run %s: candidate %s is a duplicate of %s (score %.3f), discarded",
				report.RunID, candidate.ID, verdict.BestMatchID, verdict.SimilarityScore)
			continue
		}

		report.State = StateComposing
		idea, err := c.composer.Compose(ctx, candidate, verdict)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.Failures = append(report.Failures, Failure{
				Stage:   string(StateComposing),
				Unit:    candidate.ID,
				Code:    domain.ErrCodeInternalError,
				Message: err.Error(),
			})
			continue
		}
		report.Ideas = append(report.Ideas, idea)
		report.State = StateDeduplicating
	}

	return nil
}
