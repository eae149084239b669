package http

import (
	"context"
	"net/http"
	"strings"

	"muvbackoffice/internal/models"
)

type contextKey string

const sessionKey contextKey = "admin_session"

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	// Browsers cannot set headers on websocket upgrades.
	return r.URL.Query().Get("token")
}

// requireAdmin authorizes the session on every privileged request. Validity
// is re-checked each time; membership can be revoked mid-session.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing admin token")
			return
		}
		sess, err := h.Sessions.Authorize(r.Context(), token)
		if err != nil {
			respondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey).(*models.Session)
	return sess
}
