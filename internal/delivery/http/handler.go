package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/service"
	"github.com/vogiaan1904/thequeue/pkg/logger"
	"github.com/vogiaan1904/thequeue/pkg/response"
)

type Handler struct {
	queueSvc   service.QueueService
	sessionSvc service.SessionService
	authConf   config.AuthConfig
	rtConf     config.RealtimeConfig
	l          logger.Logger
	validator  *validator.Validate
	upgrader   websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
}

func NewHandler(
	queueSvc service.QueueService,
	sessionSvc service.SessionService,
	authConf config.AuthConfig,
	rtConf config.RealtimeConfig,
	l logger.Logger,
) *Handler {
	h := &Handler{
		queueSvc:   queueSvc,
		sessionSvc: sessionSvc,
		authConf:   authConf,
		rtConf:     rtConf,
		l:          l,
		validator:  validator.New(),
		closing:    make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Close sends a going-away frame to every open websocket and ends its pumps.
// http.Server.Shutdown does not track hijacked connections.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.rtConf.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.l.Debugf(r.Context(), "http.Handler.decode: %v", err)
		h.respondError(w, r, errInvalidBody, nil)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, r, errValidation, validationDetails(err))
		return false
	}
	return true
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	if err := response.JSON(w, statusCode, data); err != nil {
		h.l.Errorf(r.Context(), "http.Handler.respondJSON: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, details any) {
	mapped := mapHTTPError(err)
	if mapped == err && !isHTTPError(err) {
		h.l.Errorf(r.Context(), "http.Handler: %v", err)
	}
	if werr := response.Error(w, mapped, details); werr != nil {
		h.l.Errorf(r.Context(), "http.Handler.respondError: %v", werr)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}
