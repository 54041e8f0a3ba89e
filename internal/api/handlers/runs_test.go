package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunWithGoals(ctx context.Context, goals []domain.StrategicGoal) (*pipeline.Report, error) {
	args := m.Called(ctx, goals)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Report), args.Error(1)
}

func testReport(runID string) *pipeline.Report {
	return &pipeline.Report{
		RunID:     runID,
		State:     pipeline.StateCompleted,
		StartedAt: time.Now().UTC(),
		Ideas: []*domain.ComposedIdea{
			{
				ID:                "idea-1",
				Title:             "Usage analytics",
				Description:       "Per-team usage trends.",
				BusinessValueNote: "Reduces churn.",
				Confidence:        0.8,
				Verdict:           domain.DedupVerdict{Classification: domain.ClassificationNovel},
			},
		},
	}
}

func TestRunsHandler_Create(t *testing.T) {
	runner := new(MockRunner)
	store := pipeline.NewStore()
	handler := NewRunsHandler(runner, store)

	runner.On("RunWithGoals", mock.Anything, []domain.StrategicGoal{{Text: "expand into EU"}}).
		Return(testReport("run-1"), nil)

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"goals": [{"text": "expand into EU"}]}`))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	// Stored before the response was written.
	stored, err := store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateCompleted, stored.State)
	runner.AssertExpectations(t)
}

func TestRunsHandler_Create_EmptyBodyUsesDefaults(t *testing.T) {
	runner := new(MockRunner)
	handler := NewRunsHandler(runner, pipeline.NewStore())

	runner.On("RunWithGoals", mock.Anything, []domain.StrategicGoal{}).
		Return(testReport("run-2"), nil)

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	runner.AssertExpectations(t)
}

func TestRunsHandler_Create_BlankGoalRejected(t *testing.T) {
	runner := new(MockRunner)
	handler := NewRunsHandler(runner, pipeline.NewStore())

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"goals": [{"id": "g1"}]}`))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	runner.AssertNotCalled(t, "RunWithGoals")
}

func TestRunsHandler_Create_HardFailureStillStoresReport(t *testing.T) {
	runner := new(MockRunner)
	store := pipeline.NewStore()
	handler := NewRunsHandler(runner, store)

	failed := testReport("run-3")
	failed.State = pipeline.StateFailed
	failed.Ideas = nil
	runner.On("RunWithGoals", mock.Anything, mock.Anything).
		Return(failed, domain.NewDomainErrorWithCause(domain.ErrCodeCorpusLoad, "baseline unavailable", errors.New("db down")))

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	stored, err := store.Get("run-3")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateFailed, stored.State)
}

func TestRunsHandler_Get(t *testing.T) {
	store := pipeline.NewStore()
	store.Save(testReport("run-1"))
	handler := NewRunsHandler(new(MockRunner), store)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "run-1")
	req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data export.RunRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.Data.RunID)
}

func TestRunsHandler_List(t *testing.T) {
	store := pipeline.NewStore()
	store.Save(testReport("run-1"))
	older := testReport("run-0")
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	store.Save(older)
	handler := NewRunsHandler(new(MockRunner), store)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data RunListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "run-1", resp.Data.Items[0].RunID)
	assert.False(t, resp.Data.HasMore)
}

func TestRunsHandler_List_Paginated(t *testing.T) {
	store := pipeline.NewStore()
	for i := 0; i < 3; i++ {
		report := testReport("run-" + string(rune('a'+i)))
		report.StartedAt = report.StartedAt.Add(-time.Duration(i) * time.Hour)
		store.Save(report)
	}
	handler := NewRunsHandler(new(MockRunner), store)

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=2", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var first struct {
		Data RunListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Data.Items, 2)
	assert.Equal(t, "run-a", first.Data.Items[0].RunID)
	assert.True(t, first.Data.HasMore)
	require.NotEmpty(t, first.Data.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/runs?limit=2&cursor="+first.Data.Cursor, nil)
	w = httptest.NewRecorder()
	handler.List(w, req)

	var second struct {
		Data RunListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Len(t, second.Data.Items, 1)
	assert.Equal(t, "run-c", second.Data.Items[0].RunID)
	assert.False(t, second.Data.HasMore)
}

func TestRunsHandler_List_InvalidCursor(t *testing.T) {
	handler := NewRunsHandler(new(MockRunner), pipeline.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/runs?cursor=not-base64!", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
