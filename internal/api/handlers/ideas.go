package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/ideaforge/internal/api"
	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/go-chi/chi/v5"
)

// IdeaLister serves composed ideas across runs
type IdeaLister interface {
	Ideas() []*domain.ComposedIdea
	RunIdeas(runID string) ([]*domain.ComposedIdea, error)
}

// FeedbackRecorder records reviewer ratings for composed ideas
type FeedbackRecorder interface {
	Rate(ideaID string, value int) error
	List() []export.Rating
}

type IdeasHandler struct {
	ideas    IdeaLister
	feedback FeedbackRecorder
}

func NewIdeasHandler(ideas IdeaLister, feedback FeedbackRecorder) *IdeasHandler {
	return &IdeasHandler{ideas: ideas, feedback: feedback}
}

// List returns composed ideas across stored runs, or one run's ideas
// when the run query parameter is set
func (h *IdeasHandler) List(w http.ResponseWriter, r *http.Request) {
	var ideas []*domain.ComposedIdea
	if runID := r.URL.Query().Get("run"); runID != "" {
		var err error
		ideas, err = h.ideas.RunIdeas(runID)
		if err != nil {
			api.HandleError(w, err)
			return
		}
	} else {
		ideas = h.ideas.Ideas()
	}

	records := make([]export.IdeaRecord, 0, len(ideas))
	for _, idea := range ideas {
		records = append(records, export.NewIdeaRecord(idea))
	}
	api.Success(w, http.StatusOK, records)
}

type RateIdeaRequest struct {
	Rating int `json:"rating"`
}

// Rate records a 1-5 reviewer rating for an idea
func (h *IdeasHandler) Rate(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")
	if ideaID == "" {
		api.Error(w, http.StatusBadRequest, "idea id is required")
		return
	}

	var req RateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.feedback.Rate(ideaID, req.Rating); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"id":     ideaID,
		"rating": req.Rating,
	})
}

// ListFeedback returns all recorded ratings
func (h *IdeasHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.feedback.List())
}
