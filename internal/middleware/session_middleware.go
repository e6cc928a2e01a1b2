package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	appctx "github.com/welldanyogia/auth-ledger/internal/context"
)

// SessionResolver resolves an opaque session token to a live session.
type SessionResolver interface {
	Resolve(token string) (appctx.SessionInfo, bool)
}

// SessionAuth validates the session token on incoming requests and injects
// the resolved session into the request context. Requests without a valid
// token get a 401 and never reach the handler.
func SessionAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing session token")
				return
			}

			session, ok := sessions.Resolve(token)
			if !ok {
				writeUnauthorized(w, "invalid or expired session")
				return
			}

			ctx := appctx.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the session token from the Authorization header
// (Bearer scheme) or the X-Session-Token header.
func extractToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if after, ok := strings.CutPrefix(authz, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	return r.Header.Get("X-Session-Token")
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":        "SESSION_INVALID",
			"message":     message,
			"status_code": http.StatusUnauthorized,
		},
		"timestamp": time.Now().UTC(),
	})
}
