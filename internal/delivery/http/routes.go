package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.HTTPMiddleware(h.l))

	r.Get("/health", h.Health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{session}", h.GetSessionBySlug)

		r.Route("/{session}/requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/", h.ListRequests)
			r.Patch("/{request}/position", h.UpdatePosition)
			r.Patch("/{request}/status", h.UpdateStatus)
		})
	})

	r.Patch("/requests/{request}/position", h.UpdatePosition)
	r.Patch("/requests/{request}/status", h.UpdateStatus)

	r.Get("/ws/sessions/{session}", h.ServeWS)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.adminOnly)
		r.Get("/sessions", h.ListSessions)
		r.Delete("/sessions/{session}", h.EndSession)
	})

	return r
}
