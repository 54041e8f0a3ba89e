package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFeedback struct {
	mock.Mock
}

func (m *MockFeedback) Rate(ideaID string, value int) error {
	args := m.Called(ideaID, value)
	return args.Error(0)
}

func (m *MockFeedback) List() []export.Rating {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]export.Rating)
}

func TestIdeasHandler_List(t *testing.T) {
	store := pipeline.NewStore()
	store.Save(testReport("run-1"))
	handler := NewIdeasHandler(store, new(MockFeedback))

	req := httptest.NewRequest(http.MethodGet, "/ideas", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []export.IdeaRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Usage analytics", resp.Data[0].Title)
	assert.Equal(t, "novel", resp.Data[0].Classification)
}

func TestIdeasHandler_List_FilteredByRun(t *testing.T) {
	store := pipeline.NewStore()
	store.Save(testReport("run-1"))
	other := testReport("run-2")
	other.Ideas[0].ID = "idea-2"
	other.Ideas[0].Title = "Billing alerts"
	store.Save(other)
	handler := NewIdeasHandler(store, new(MockFeedback))

	req := httptest.NewRequest(http.MethodGet, "/ideas?run=run-2", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []export.IdeaRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "idea-2", resp.Data[0].ID)
}

func TestIdeasHandler_List_UnknownRunIs404(t *testing.T) {
	handler := NewIdeasHandler(pipeline.NewStore(), new(MockFeedback))

	req := httptest.NewRequest(http.MethodGet, "/ideas?run=nope", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func rateRequest(ideaID, body string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", ideaID)
	req := httptest.NewRequest(http.MethodPost, "/ideas/"+ideaID+"/feedback", strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestIdeasHandler_Rate(t *testing.T) {
	feedback := new(MockFeedback)
	feedback.On("Rate", "idea-1", 5).Return(nil)
	handler := NewIdeasHandler(pipeline.NewStore(), feedback)

	w := httptest.NewRecorder()
	handler.Rate(w, rateRequest("idea-1", `{"rating": 5}`))

	assert.Equal(t, http.StatusOK, w.Code)
	feedback.AssertExpectations(t)
}

func TestIdeasHandler_Rate_InvalidValue(t *testing.T) {
	feedback := new(MockFeedback)
	feedback.On("Rate", "idea-1", 9).
		Return(domain.NewDomainError(domain.ErrCodeValidation, "rating must be between 1 and 5, got 9"))
	handler := NewIdeasHandler(pipeline.NewStore(), feedback)

	w := httptest.NewRecorder()
	handler.Rate(w, rateRequest("idea-1", `{"rating": 9}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdeasHandler_Rate_BadBody(t *testing.T) {
	handler := NewIdeasHandler(pipeline.NewStore(), new(MockFeedback))

	w := httptest.NewRecorder()
	handler.Rate(w, rateRequest("idea-1", `{`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdeasHandler_ListFeedback(t *testing.T) {
	feedback := new(MockFeedback)
	feedback.On("List").Return([]export.Rating{{IdeaID: "idea-1", Value: 4}})
	handler := NewIdeasHandler(pipeline.NewStore(), feedback)

	req := httptest.NewRequest(http.MethodGet, "/feedback", nil)
	w := httptest.NewRecorder()
	handler.ListFeedback(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []export.Rating `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 4, resp.Data[0].Value)
}
