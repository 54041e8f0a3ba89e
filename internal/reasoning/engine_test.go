package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns queued responses in order, then repeats the last
type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
}

func (c *scriptedClient) GenerateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := c.calls
	c.calls++
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	return c.responses[i], err
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Timeout:           time.Second,
	}
}

const validResponse = `{
	"ideas": [
		{
			"title": "Usage-based alerts",
			"description": "Notify admins when a workspace approaches its plan limits",
			"tags": ["retention", "billing"],
			"business_value": "Reduces involuntary churn at renewal time",
			"confidence": 0.8
		},
		{
			"title": "Bulk import from CSV",
			"description": "Allow importing backlog items from spreadsheets",
			"tags": ["onboarding"],
			"business_value": "Lowers migration effort for new customers",
			"confidence": 0.7
		}
	]
}`

func testRequest() Request {
	return Request{
		Goals: []domain.StrategicGoal{{ID: "g1", Text: "grow self-serve revenue"}},
		Context: []domain.TextChunk{
			{ID: "doc-1#0000", DocumentID: "doc-1", Text: "customers hit plan limits silently"},
		},
		ExistingIdeaSummaries: []string{"Dark mode"},
		DesiredCount:          2,
	}
}

func TestEngine_Generate_Success(t *testing.T) {
	client := &scriptedClient{responses: []string{validResponse}}
	engine := NewEngineWithRetry(client, fastRetry(3))

	candidates, err := engine.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Usage-based alerts", candidates[0].Title)
	assert.Equal(t, "Bulk import from CSV", candidates[1].Title)
	assert.Equal(t, []string{"doc-1#0000"}, candidates[0].SourceRefs)
	assert.Equal(t, 1, client.calls)
}

func TestEngine_Generate_RetriesMalformedThenSucceeds(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"not json at all",
		`{"ideas": []}`,
		validResponse,
	}}
	engine := NewEngineWithRetry(client, fastRetry(3))

	candidates, err := engine.Generate(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
	assert.Equal(t, 3, client.calls)
}

func TestEngine_Generate_SchemaFailureExhaustsRetries(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"notideas": true}`}}
	engine := NewEngineWithRetry(client, fastRetry(2))

	candidates, err := engine.Generate(context.Background(), testRequest())

	require.Error(t, err)
	assert.Nil(t, candidates)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, 3, client.calls) // initial attempt + 2 retries
}

func TestEngine_Generate_TransientErrorExhaustsRetries(t *testing.T) {
	backendErr := errors.New("connection reset")
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{backendErr},
	}
	engine := NewEngineWithRetry(client, fastRetry(1))

	_, err := engine.Generate(context.Background(), testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, 2, client.calls)
}

func TestEngine_Generate_MissingRequiredField(t *testing.T) {
	noTitle := `{"ideas": [{"title": "", "description": "d", "tags": [], "business_value": "v", "confidence": 0.5}]}`
	client := &scriptedClient{responses: []string{noTitle}}
	engine := NewEngineWithRetry(client, fastRetry(0))

	_, err := engine.Generate(context.Background(), testRequest())

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
}

func TestEngine_Generate_UnknownFieldsRejected(t *testing.T) {
	extra := `{"ideas": [{"title": "t", "description": "d", "tags": [], "business_value": "v", "confidence": 0.5, "priority": "high"}]}`
	client := &scriptedClient{responses: []string{extra}}
	engine := NewEngineWithRetry(client, fastRetry(0))

	_, err := engine.Generate(context.Background(), testRequest())

	assert.Error(t, err)
}

func TestEngine_Generate_Cancellation(t *testing.T) {
	client := &scriptedClient{responses: []string{"garbage"}}
	engine := NewEngineWithRetry(client, RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    time.Hour, // cancellation must interrupt backoff
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 2.0,
		Timeout:           time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := engine.Generate(ctx, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCandidates_OrderPreserved(t *testing.T) {
	candidates, err := parseCandidates(validResponse, nil)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Usage-based alerts", candidates[0].Title)
	assert.Equal(t, "Bulk import from CSV", candidates[1].Title)
	assert.Empty(t, candidates[0].SourceRefs)
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt(testRequest())

	assert.Contains(t, prompt, "grow self-serve revenue")
	assert.Contains(t, prompt, "doc-1#0000")
	assert.Contains(t, prompt, "Dark mode")
	assert.Contains(t, prompt, "Generate 2 new roadmap ideas")
	assert.Contains(t, prompt, "raw JSON only")
}
