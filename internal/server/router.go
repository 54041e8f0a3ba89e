package server

import (
	"net/http"

	"github.com/cloo-solutions/ideaforge/internal/api"
	"github.com/cloo-solutions/ideaforge/internal/api/handlers"
	"github.com/cloo-solutions/ideaforge/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	RunsHandler  *handlers.RunsHandler
	IdeasHandler *handlers.IdeasHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", cfg.RunsHandler.Create)
		r.Get("/", cfg.RunsHandler.List)
		r.Get("/{id}", cfg.RunsHandler.Get)
	})

	r.Route("/ideas", func(r chi.Router) {
		r.Get("/", cfg.IdeasHandler.List)
		r.Post("/{id}/feedback", cfg.IdeasHandler.Rate)
	})
	r.Get("/feedback", cfg.IdeasHandler.ListFeedback)

	return r
}
