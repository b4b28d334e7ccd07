package middleware

import (
	"net/http"

	"github.com/redline-rp/portal/internal/api/response"
	"github.com/redline-rp/portal/internal/session"
)

// RequireSession rejects API requests that carry no valid session with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.ClaimsFromContext(r.Context()); !ok {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects sessions without the admin flag with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestID(r.Context())

		claims, ok := session.ClaimsFromContext(r.Context())
		if !ok {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
			return
		}

		if !claims.Flags().IsAdmin {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", requestID)
			return
		}

		next.ServeHTTP(w, r)
	})
}
