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
	r.Use(h.metrics.Middleware)
	r.Use(RecoveryMiddleware)

	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			// Registration happens before a user id exists.
			r.Post("/users", h.UpsertUser)

			r.Group(func(r chi.Router) {
				r.Use(UserMiddleware(h.store))

				r.Get("/me", h.Me)
				r.Post("/me/setup", h.Setup)
				r.Get("/periods", h.Periods)

				r.Get("/departments", h.ListDepartments)
				r.Post("/departments", h.CreateDepartment)
				r.Get("/departments/overview", h.DepartmentsOverview)
				r.Get("/departments/{id}/goal", h.GetDepartmentGoal)
				r.Put("/departments/{id}/goal", h.PutDepartmentGoal)
				r.Get("/departments/{id}/okrs", h.TeamOKRs)
				r.Get("/departments/{id}/progress", h.DepartmentProgress)

				r.Get("/okrs", h.ListOKRs)
				r.Post("/okrs", h.SubmitOKRs)
				r.Get("/okrs/{id}", h.GetOKR)
				r.Delete("/okrs/{id}", h.ArchiveOKR)
				r.Post("/okrs/{id}/check-ins", h.CheckIn)
				r.Get("/okrs/{id}/trend", h.Trend)

				r.Get("/drafts", h.GetDraft)
				r.Put("/drafts", h.SaveDraft)
				r.Delete("/drafts", h.DeleteDraft)

				r.Post("/reminders", h.CreateReminder)

				r.Post("/ai/objective", h.GenerateObjective)
				r.Post("/ai/key-results", h.GenerateKeyResults)
				r.Post("/ai/objective/optimize", h.OptimizeObjective)
				r.Post("/ai/key-results/optimize", h.OptimizeKeyResults)
			})
		})
	})

	return r
}
