package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/api/response"
	"github.com/redline-rp/portal/internal/guard"
	"github.com/redline-rp/portal/internal/session"
)

// AccessChecker re-validates access for a session and route.
type AccessChecker interface {
	Check(ctx context.Context, req guard.Request) (guard.Viewer, error)
	State(claims *session.Claims, route string) guard.Viewer
}

// AccessHandler handles GET /api/access.
type AccessHandler struct {
	guard  AccessChecker
	sealer SessionSealer
	secure bool
}

// NewAccessHandler creates a new AccessHandler. A nil sealer disables
// cookie refresh.
func NewAccessHandler(g AccessChecker, sealer SessionSealer, secureCookies bool) *AccessHandler {
	return &AccessHandler{guard: g, sealer: sealer, secure: secureCookies}
}

type accessResponse struct {
	Route      string `json:"route"`
	IsVerified bool   `json:"isVerified"`
	IsLoading  bool   `json:"isLoading"`
	Legacy     bool   `json:"legacy"`
}

// ServeHTTP runs the live re-check for the route given in ?route=.
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	route := r.URL.Query().Get("route")
	if route == "" {
		route = "/"
	}

	claims, _ := session.ClaimsFromContext(r.Context())
	v, err := viewerFor(r.Context(), h.guard, claims, route)
	if err != nil {
		response.Err(w, http.StatusServiceUnavailable, "CHECK_CANCELLED", "Access check was cancelled", requestID)
		return
	}
	if !v.IsLoading {
		refreshSession(w, r, h.sealer, claims, v, h.secure)
	}

	response.Success(w, http.StatusOK, accessResponse{
		Route:      route,
		IsVerified: v.IsVerified,
		IsLoading:  v.IsLoading,
		Legacy:     v.Legacy,
	}, requestID)
}

// viewerFor runs the guard. A check replaced by a newer one reports the
// loading state of the newer check instead of an error.
func viewerFor(ctx context.Context, g AccessChecker, claims *session.Claims, route string) (guard.Viewer, error) {
	v, err := g.Check(ctx, guard.Request{Claims: claims, Route: route})
	if errors.Is(err, guard.ErrSuperseded) {
		v = g.State(claims, route)
		v.IsLoading = true
		return v, nil
	}
	return v, err
}

// refreshSession reissues the cookie when the live membership flags differ
// from those in the token, so the edge gate agrees with the guard on the
// next navigation. Legacy verification is page-local and never persisted.
func refreshSession(w http.ResponseWriter, r *http.Request, sealer SessionSealer, claims *session.Claims, v guard.Viewer, secure bool) {
	if sealer == nil || claims == nil || v.Identity == nil {
		return
	}
	current := claims.Flags()
	if current.IsMember == v.Flags.IsMember && current.IsSpecial == v.Flags.IsSpecial {
		return
	}

	updated := *claims
	updated.ID = ""
	updated.IsMember = &v.Flags.IsMember
	updated.IsSpecial = &v.Flags.IsSpecial

	value, err := sealer.Seal(updated)
	if err != nil {
		middleware.Logger(r.Context()).Warn("refreshing session failed", "error", err)
		return
	}
	session.SetCookie(w, value, updated.ExpiresAt.Time, secure)
	middleware.Logger(r.Context()).Info("session flags refreshed",
		"userId", claims.Identity.ID, "isMember", v.Flags.IsMember, "isSpecial", v.Flags.IsSpecial)
}
