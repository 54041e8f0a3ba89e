package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/ideaforge/internal/api"
	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/cloo-solutions/ideaforge/internal/pagination"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// PipelineRunner executes idea generation runs
type PipelineRunner interface {
	RunWithGoals(ctx context.Context, goals []domain.StrategicGoal) (*pipeline.Report, error)
}

// RunStore serves stored run reports
type RunStore interface {
	Save(report *pipeline.Report)
	Get(runID string) (*pipeline.Report, error)
	ListPage(cursor *pagination.Cursor, limit int) ([]*pipeline.Report, string, bool)
}

type RunsHandler struct {
	runner PipelineRunner
	store  RunStore
}

func NewRunsHandler(runner PipelineRunner, store RunStore) *RunsHandler {
	return &RunsHandler{runner: runner, store: store}
}

type CreateRunRequest struct {
	Goals []GoalRequest `json:"goals"`
}

type GoalRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Create executes a pipeline run and returns its report. Runs are
// executed synchronously; the report is stored before the response is
// written so it is immediately retrievable by id.
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	goals := make([]domain.StrategicGoal, 0, len(req.Goals))
	for _, g := range req.Goals {
		if g.Text == "" {
			api.Error(w, http.StatusBadRequest, "goal text is required")
			return
		}
		goals = append(goals, domain.StrategicGoal{ID: g.ID, Text: g.Text})
	}

	report, err := h.runner.RunWithGoals(r.Context(), goals)
	if report != nil {
		h.store.Save(report)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, export.NewRunRecord(report))
}

// Get returns a stored run report by id
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		api.Error(w, http.StatusBadRequest, "run id is required")
		return
	}

	report, err := h.store.Get(runID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, export.NewRunRecord(report))
}

type RunListResponse struct {
	Items   []export.RunRecord `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

// List returns a page of stored run reports, newest first
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	reports, nextCursor, hasMore := h.store.ListPage(cursor, limit)
	records := make([]export.RunRecord, 0, len(reports))
	for _, report := range reports {
		records = append(records, export.NewRunRecord(report))
	}

	api.Success(w, http.StatusOK, RunListResponse{
		Items:   records,
		Cursor:  nextCursor,
		HasMore: hasMore,
	})
}
