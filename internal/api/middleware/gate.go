package middleware

import (
	"net/http"
	"strings"

	"github.com/redline-rp/portal/internal/obs"
	"github.com/redline-rp/portal/internal/session"
)

// RegisterPath is where denied navigations are sent.
const RegisterPath = "/register"

var (
	gatePrefixes = []string{"/auth/", "/static/", "/api/"}
	gateExact    = map[string]bool{
		RegisterPath:   true,
		"/re-register": true,
		"/health":      true,
		"/metrics":     true,
		"/favicon.ico": true,
	}
)

// Exempt reports whether path bypasses the gate.
func Exempt(path string) bool {
	if gateExact[path] {
		return true
	}
	for _, p := range gatePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Gate redirects navigations without an access-granting session to the
// registration page. It decides from the claims placed in the context by
// Session only and never calls upstream services.
func Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Exempt(r.URL.Path) {
			obs.ObserveGate("exempt")
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := session.ClaimsFromContext(r.Context())
		switch {
		case !ok:
			obs.ObserveGate("no_session")
			http.Redirect(w, r, RegisterPath, http.StatusSeeOther)
		case !claims.HasAccess():
			obs.ObserveGate("denied")
			http.Redirect(w, r, RegisterPath, http.StatusSeeOther)
		default:
			obs.ObserveGate("allowed")
			next.ServeHTTP(w, r)
		}
	})
}
