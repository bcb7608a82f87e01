package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/service"
)

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.queueSvc.Submit(r.Context(), chi.URLParam(r, "session"), req.toInput())
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, res.Request)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.queueSvc.ListRequests(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusOK, reqs)
}

// sessionFor returns the session in the path or, on the flat /requests
// routes, the session the request belongs to.
func (h *Handler) sessionFor(r *http.Request) (string, error) {
	if sessionID := chi.URLParam(r, "session"); sessionID != "" {
		return sessionID, nil
	}
	return h.queueSvc.SessionOfRequest(r.Context(), chi.URLParam(r, "request"))
}

func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req updatePositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mutate(w, r, service.MutationInput{
		Kind:      service.MutationReposition,
		RequestID: chi.URLParam(r, "request"),
		Position:  *req.Position,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mutate(w, r, service.MutationInput{
		Kind:      service.MutationStatus,
		RequestID: chi.URLParam(r, "request"),
		Status:    models.RequestStatus(req.Status),
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, in service.MutationInput) {
	sessionID, err := h.sessionFor(r)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	if err := h.authorizeDJ(r, sessionID); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	res, err := h.queueSvc.Submit(r.Context(), sessionID, in)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	h.respondJSON(w, r, http.StatusOK, res.Request)
}
