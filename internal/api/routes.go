package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Get("/dataset", h.DatasetInfo)
			r.Get("/dataset/sections", h.Sections)
			r.Get("/dataset/requirements/{id}", h.RequirementByID)
			r.Get("/search", h.Search)

			r.Post("/wizard/resolve", h.WizardResolve)

			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Post("/projects/import", h.ImportProject)
			r.Get("/projects/active", h.ActiveProject)

			r.Route("/projects/{id}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Put("/", h.UpdateProject)
				r.Post("/activate", h.ActivateProject)
				r.Post("/generate", h.GenerateChecklist)
				r.Post("/commit", h.CommitChecklist)
				r.Get("/progress", h.ProjectProgress)
				r.Get("/export", h.ExportProject)
				r.Get("/dossier", h.Dossier)

				r.Route("/stages/{stageID}/items/{reqID}", func(r chi.Router) {
					r.Put("/", h.UpdateItem)
					r.Post("/evidence", h.AttachEvidence)
					r.Delete("/evidence/{evidenceID}", h.RemoveEvidence)
				})
			})
		})
	})

	return r
}
