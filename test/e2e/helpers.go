//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/ideaforge/internal/api/handlers"
	"github.com/cloo-solutions/ideaforge/internal/compose"
	"github.com/cloo-solutions/ideaforge/internal/corpus"
	"github.com/cloo-solutions/ideaforge/internal/dedup"
	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/cloo-solutions/ideaforge/internal/index"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
	"github.com/cloo-solutions/ideaforge/internal/reasoning"
	"github.com/cloo-solutions/ideaforge/internal/retriever"
	"github.com/cloo-solutions/ideaforge/internal/server"
	"github.com/cloo-solutions/ideaforge/internal/sources"
	"github.com/cloo-solutions/ideaforge/internal/storage"
	"github.com/cloo-solutions/ideaforge/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDimensions = 1536

// stubAIClient is a deterministic stand-in for the generative backend.
// Embeddings are derived from the text alone, so identical text always
// maps to identical vectors, and completions return a fixed candidate
// batch.
type stubAIClient struct {
	completion string
}

func (s *stubAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return deterministicEmbedding(text, embeddingDimensions), nil
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.completion, nil
}

// deterministicEmbedding hashes the text into a seed and draws a unit
// vector from it. Distinct texts land near-orthogonal at this
// dimensionality, identical texts coincide exactly.
func deterministicEmbedding(text string, dims int) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	v := make([]float32, dims)
	var norm float64
	for i := range v {
		x := rng.NormFloat64()
		v[i] = float32(x)
		norm += x * x
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

const defaultCompletion = `{"ideas": [
	{"title": "Usage analytics dashboard", "description": "Give team leads a dashboard of per-seat feature usage so renewals are grounded in data.", "tags": ["analytics"], "business_value": "Reduces churn by surfacing at-risk accounts.", "confidence": 0.82},
	{"title": "Slack digest bot", "description": "Post a weekly digest of project activity into a configurable Slack channel.", "tags": ["integrations"], "business_value": "Keeps stakeholders engaged without logging in.", "confidence": 0.67}
]}`

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T           *testing.T
	Ctx         context.Context
	PostgresC   *testutil.PostgresContainer
	RustFSC     *testutil.RustFSContainer
	Pool        *pgxpool.Pool
	S3Client    *storage.S3Client
	Coordinator *pipeline.Coordinator
	Store       *pipeline.Store
	ServerURL   string
	HTTPClient  *http.Client

	srv *httptest.Server
}

// SetupE2EEnv creates a full environment: pgvector-backed corpus, RustFS
// object storage, file sources, and the HTTP server, with only the
// generative backend stubbed out.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "ideaforge-exports",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	dataDir := t.TempDir()
	writeJSONFile(t, filepath.Join(dataDir, "docs.json"), []map[string]string{
		{"id": "doc-1", "text": "Customers repeatedly ask for visibility into which features their teams actually use."},
		{"id": "doc-2", "text": "Support tickets show confusion about project activity; stakeholders want summaries pushed to them."},
	})
	writeJSONFile(t, filepath.Join(dataDir, "ideas.json"), []map[string]string{
		{"id": "backlog-1", "text": "Billing alerts when spend crosses a configured monthly threshold."},
	})

	stub := &stubAIClient{completion: defaultCompletion}
	corpusIndex := index.NewPgvector(pool, "idea_corpus", embeddingDimensions)

	retr := retriever.New(stub, index.NewMemoryWithDimensions(embeddingDimensions), retriever.Config{})
	stage, err := dedup.NewStage(corpusIndex, dedup.Thresholds{Duplicate: 0.92, Merge: 0.80})
	if err != nil {
		t.Fatalf("failed to create dedup stage: %v", err)
	}

	docSources := []sources.DocumentSource{
		sources.NewFileDocumentSource("docs", filepath.Join(dataDir, "docs.json"), domain.SourceTypeDoc),
		sources.NewFileDocumentSource("backlog", filepath.Join(dataDir, "backlog.json"), domain.SourceTypeBacklog),
	}

	coordinator := pipeline.NewCoordinator(
		docSources,
		sources.NewFileIdeaSource(filepath.Join(dataDir, "ideas.json")),
		corpus.NewLoader(stub, corpusIndex),
		retr,
		reasoning.NewEngine(stub),
		stage,
		compose.NewComposer(corpusIndex, nil),
		stub,
		pipeline.Config{RetrievalK: 8, DesiredCount: 2},
	)

	store := pipeline.NewStore()
	feedback, err := export.NewFeedbackStore(filepath.Join(dataDir, "feedback.json"))
	if err != nil {
		t.Fatalf("failed to create feedback store: %v", err)
	}

	router := server.NewRouter(server.RouterConfig{
		RunsHandler:  handlers.NewRunsHandler(coordinator, store),
		IdeasHandler: handlers.NewIdeasHandler(store, feedback),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:           t,
		Ctx:         ctx,
		PostgresC:   pgC,
		RustFSC:     s3C,
		Pool:        pool,
		S3Client:    s3Client,
		Coordinator: coordinator,
		Store:       store,
		ServerURL:   srv.URL,
		HTTPClient:  srv.Client(),
		srv:         srv,
	}
}

// Cleanup tears down the server, pool, and containers
func (env *E2ETestEnv) Cleanup() {
	env.srv.Close()
	env.Pool.Close()
	if err := env.PostgresC.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate postgres container: %v", err)
	}
	if err := env.RustFSC.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate rustfs container: %v", err)
	}
}

// APIResponse mirrors the server's response envelope
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Post sends a POST request and decodes the response envelope
func (env *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	resp, err := env.HTTPClient.Post(env.ServerURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

// Get sends a GET request and decodes the response envelope
func (env *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	resp, err := env.HTTPClient.Get(env.ServerURL + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (*APIResponse, int, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var envelope APIResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response %q: %w", raw, err)
	}
	return &envelope, resp.StatusCode, nil
}

func writeJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
