package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/service"
)

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.sessionSvc.CreateSession(r.Context(), service.CreateSessionInput{Name: req.Name})
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, out)
}

func (h *Handler) GetSessionBySlug(w http.ResponseWriter, r *http.Request) {
	ss, err := h.sessionSvc.GetSessionBySlug(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusOK, ss)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessionSvc.ListSessions(r.Context())
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	if list == nil {
		list = []models.SessionSummary{}
	}
	h.respondJSON(w, r, http.StatusOK, sessionListResponse{Sessions: list})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ss, err := h.sessionSvc.EndSession(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusOK, ss)
}
