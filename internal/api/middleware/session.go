package middleware

import (
	"net/http"

	"github.com/redline-rp/portal/internal/session"
)

// SessionOpener opens the session cookie of a request.
type SessionOpener interface {
	FromRequest(r *http.Request) (*session.Claims, error)
}

// Session attaches the validated session claims to the request context.
// Requests without a valid cookie pass through unauthenticated. A nil
// opener disables sessions entirely.
func Session(opener SessionOpener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opener == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := opener.FromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
