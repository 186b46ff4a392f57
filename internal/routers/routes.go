package routers

import (
	"takeint/internal/handlers"
	"takeint/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// InterviewRoutes mounts the authenticated interview and session endpoints.
func InterviewRoutes(r *chi.Mux, jwtSecret string, ih *handlers.InterviewHandler, sh *handlers.SessionHandler) {
	r.Route("/api/v1/interviews", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))
		r.Get("/", ih.ListInterviews)
		r.Post("/", ih.CreateInterview)
		r.Get("/scheduled", ih.ListScheduled)
		r.Post("/schedule", ih.ScheduleInterview)
		r.Get("/{id}", ih.GetInterview)
		r.Delete("/{id}", ih.DeleteInterview)
		r.Post("/{id}/session", sh.StartSession)
		r.Post("/{id}/complete", sh.CompleteInterview)
	})
}

// ReportRoutes mounts the authenticated feedback report endpoints.
func ReportRoutes(r *chi.Mux, jwtSecret string, rh *handlers.ReportHandler) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))
		r.Get("/", rh.ListReports)
		r.Get("/{id}", rh.GetReport)
	})
}

// HealthRoutes mounts the unauthenticated health endpoints.
func HealthRoutes(r *chi.Mux, hh *handlers.HealthHandler) {
	r.Get("/healthz", hh.HealthzHandler)
	r.Get("/readyz", hh.ReadyzHandler)
}
