package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the Chi router
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(Recoverer)
	r.Use(Logger)
	r.Use(CORS)

	// Health check endpoint
	r.Get("/health", h.HealthCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)

		r.Route("/words", func(r chi.Router) {
			r.Get("/", h.ListWords)
			r.Post("/generate", h.GenerateWords)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", h.GetProgress)

			// Special routes before /{wordID} to avoid conflicts
			r.Get("/due", h.GetDueWords)
			r.Get("/bookmarks", h.GetBookmarks)
			r.Get("/stats", h.GetStats)

			r.Route("/{wordID}", func(r chi.Router) {
				r.Post("/answer", h.RecordAnswer)
				r.Post("/bookmark", h.ToggleBookmark)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Post("/answers", h.AnswerSession)
			})
		})

		r.Get("/quiz/question", h.GetQuizQuestion)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", h.TriggerSync)
			r.Get("/status", h.GetSyncStatus)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/category", h.GetSelectedCategory)
			r.Put("/category", h.SetSelectedCategory)
		})
	})

	return r
}
