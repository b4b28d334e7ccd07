package middleware

import (
	"net/http"
	"strings"

	"github.com/redline-rp/portal/internal/api/response"
)

// Recovery is middleware that recovers from panics. API routes get a JSON
// error envelope, pages a plain 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(r.Context())
				Logger(r.Context()).Error("panic recovered", "error", err, "path", r.URL.Path)
				if IsAPIPath(r.URL.Path) {
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
					return
				}
				http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// IsAPIPath reports whether path is served as JSON.
func IsAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/auth/session")
}
