// Package reasoning calls the generative backend to turn retrieved
// context and strategic goals into idea candidates.
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
)

// CompletionClient defines the interface for the generative backend
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RetryConfig holds retry configuration for generation calls
type RetryConfig struct {
	MaxRetries        int           // attempts after the first call (default: 3)
	InitialBackoff    time.Duration // default: 1s
	MaxBackoff        time.Duration // default: 30s
	BackoffMultiplier float64       // default: 2.0
	Timeout           time.Duration // per-attempt timeout (default: 60s)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Timeout:           60 * time.Second,
	}
}

// Request carries one generation batch's inputs
type Request struct {
	Goals                 []domain.StrategicGoal
	Context               []domain.TextChunk
	ExistingIdeaSummaries []string
	DesiredCount          int
}

// Engine builds generation prompts, calls the backend, and validates the
// structural conformance of its responses. It is stateless between calls;
// dedup state belongs to the idea corpus, not here.
type Engine struct {
	client CompletionClient
	retry  RetryConfig
}

// NewEngine creates a reasoning engine with default retry policy
func NewEngine(client CompletionClient) *Engine {
	return NewEngineWithRetry(client, DefaultRetryConfig())
}

// NewEngineWithRetry creates a reasoning engine with an explicit retry policy
func NewEngineWithRetry(client CompletionClient, retry RetryConfig) *Engine {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}
	if retry.BackoffMultiplier <= 1 {
		retry.BackoffMultiplier = DefaultRetryConfig().BackoffMultiplier
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = DefaultRetryConfig().MaxBackoff
	}
	if retry.Timeout <= 0 {
		retry.Timeout = DefaultRetryConfig().Timeout
	}
	return &Engine{client: client, retry: retry}
}

// candidateResponse is the wire schema the backend must produce
type candidateResponse struct {
	Ideas []candidatePayload `json:"ideas"`
}

type candidatePayload struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	BusinessValueNote string   `json:"business_value"`
	Confidence        float64  `json:"confidence"`
}

// Generate produces an ordered batch of idea candidates. A malformed or
// structurally invalid response is retried with exponential backoff like a
// transient failure; when attempts are exhausted the batch fails with
// ErrGenerationFailed without affecting other batches.
func (e *Engine) Generate(ctx context.Context, req Request) ([]*domain.IdeaCandidate, error) {
	systemPrompt := buildSystemPrompt()
	userPrompt := buildUserPrompt(req)

	var lastErr error
	backoff := e.retry.InitialBackoff

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.retry.Timeout)
		raw, err := e.client.GenerateCompletion(attemptCtx, systemPrompt, userPrompt)
		cancel()

		if err == nil {
			candidates, parseErr := parseCandidates(raw, req.Context)
			if parseErr == nil {
				if attempt > 0 {
					log.Printf("generation succeeded after %d retries", attempt)
				}
				return candidates, nil
			}
			err = parseErr
		} else {
			err = domain.NewDomainErrorWithCause(domain.ErrCodeTransientExternal,
				"generation call failed", err)
		}

		lastErr = err

		if attempt == e.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		}

		log.Printf("generation attempt %d/%d failed, retrying in %v: %v",
			attempt+1, e.retry.MaxRetries+1, backoff, err)

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * e.retry.BackoffMultiplier)
			if backoff > e.retry.MaxBackoff {
				backoff = e.retry.MaxBackoff
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("generation cancelled during backoff: %w", ctx.Err())
		}
	}

	return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInvalidOperation,
		"idea generation failed for batch", errors.Join(domain.ErrGenerationFailed, lastErr))
}

// parseCandidates decodes the response strictly against the candidate
// schema. Any violation is a SchemaValidationError for the whole batch;
// there is no best-effort field recovery.
func parseCandidates(raw string, contextChunks []domain.TextChunk) ([]*domain.IdeaCandidate, error) {
	var resp candidateResponse
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&resp); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeSchemaValidation,
			"response is not valid candidate JSON", err)
	}

	if len(resp.Ideas) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeSchemaValidation,
			"response contains no ideas", domain.ErrSchemaValidation)
	}

	sourceRefs := make([]string, 0, len(contextChunks))
	for _, c := range contextChunks {
		sourceRefs = append(sourceRefs, c.ID)
	}

	candidates := make([]*domain.IdeaCandidate, 0, len(resp.Ideas))
	for i, p := range resp.Ideas {
		candidate := &domain.IdeaCandidate{
			Title:             strings.TrimSpace(p.Title),
			Description:       strings.TrimSpace(p.Description),
			Tags:              p.Tags,
			BusinessValueNote: strings.TrimSpace(p.BusinessValueNote),
			Confidence:        p.Confidence,
			SourceRefs:        sourceRefs,
		}
		if err := domain.ValidateIdeaCandidate(candidate); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeSchemaValidation,
				fmt.Sprintf("idea %d failed validation", i), err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func buildSystemPrompt() string {
	return "You are an expert product manager generating new roadmap ideas. " +
		"Ideas must be grounded in the provided documentation and must not " +
		"overlap with the existing backlog ideas listed in the request."
}

func buildUserPrompt(req Request) string {
	var b strings.Builder

	if len(req.Goals) > 0 {
		b.WriteString("Strategic goals:\n")
		for _, g := range req.Goals {
			fmt.Fprintf(&b, "- %s\n", g.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Documentation and market context:\n")
	for _, c := range req.Context {
		fmt.Fprintf(&b, "[%s] %s\n", c.ID, c.Text)
	}
	b.WriteString("\n")

	if len(req.ExistingIdeaSummaries) > 0 {
		b.WriteString("Existing backlog ideas (do not duplicate):\n")
		for _, s := range req.ExistingIdeaSummaries {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	count := req.DesiredCount
	if count <= 0 {
		count = 3
	}
	fmt.Fprintf(&b, "Generate %d new roadmap ideas. Respond with a single JSON object "+
		"of the form {\"ideas\": [...]} where each idea has exactly the keys "+
		"\"title\", \"description\", \"tags\", \"business_value\" and \"confidence\" "+
		"(a number between 0 and 1). Respond with raw JSON only, no markdown fences.", count)

	return b.String()
}
