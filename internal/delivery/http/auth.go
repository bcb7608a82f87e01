package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// authorizeDJ checks the caller holds a DJ token for sessionID.
func (h *Handler) authorizeDJ(r *http.Request, sessionID string) error {
	if !h.authConf.RequireDJToken {
		return nil
	}
	return h.sessionSvc.ValidateDJToken(r.Context(), bearerToken(r), sessionID)
}

func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authConf.AdminToken == "" {
			h.respondError(w, r, errAdminNotConfigured, nil)
			return
		}

		token := bearerToken(r)
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.authConf.AdminToken)) != 1 {
			h.l.Warnf(r.Context(), "http.Handler.adminOnly: rejected admin request from %s", r.RemoteAddr)
			h.respondError(w, r, errAdminUnauthorized, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
