package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/redline-rp/portal/internal/access"
	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/api/response"
	"github.com/redline-rp/portal/internal/discord"
	"github.com/redline-rp/portal/internal/session"
)

const (
	stateCookieName = "portal_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthProvider is the authorization-code flow of the identity provider.
// *oauth2.Config satisfies it.
type OAuthProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// ProfileFetcher resolves the identity behind a provider access token.
type ProfileFetcher interface {
	CurrentUser(ctx context.Context, bearer string) (discord.User, error)
}

// SessionBuilder computes session claims.
type SessionBuilder interface {
	Build(ctx context.Context, id session.Identity, accessToken string, expiry time.Time) session.Claims
	Update(ctx context.Context, claims session.Claims) session.Claims
}

// SessionSealer turns claims into a cookie value.
type SessionSealer interface {
	Seal(claims session.Claims) (string, error)
}

// AuthHandler implements the Discord sign-in flow and session endpoints.
type AuthHandler struct {
	oauth    OAuthProvider
	profiles ProfileFetcher
	builder  SessionBuilder
	sealer   SessionSealer
	secure   bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(oauth OAuthProvider, profiles ProfileFetcher, builder SessionBuilder, sealer SessionSealer, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		oauth:    oauth,
		profiles: profiles,
		builder:  builder,
		sealer:   sealer,
		secure:   secureCookies,
	}
}

type sessionResponse struct {
	Identity  session.Identity `json:"identity"`
	Flags     access.Flags     `json:"flags"`
	HasAccess bool             `json:"hasAccess"`
	ExpiresAt string           `json:"expiresAt,omitempty"`
}

func toSessionResponse(c *session.Claims) sessionResponse {
	resp := sessionResponse{
		Identity:  c.Identity,
		Flags:     c.Flags(),
		HasAccess: c.HasAccess(),
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Login handles GET /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback. Every failure ends on the
// registration page; causes are logged only.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context())
	q := r.URL.Query()

	stateCookie, err := r.Cookie(stateCookieName)
	h.clearState(w)

	if e := q.Get("error"); e != "" {
		log.Info("sign-in aborted by provider", "error", e)
		h.toRegister(w, r)
		return
	}
	if err != nil || q.Get("state") == "" ||
		subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(q.Get("state"))) != 1 {
		log.Warn("oauth state mismatch")
		h.toRegister(w, r)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Warn("oauth code exchange failed", "error", err)
		h.toRegister(w, r)
		return
	}

	user, err := h.profiles.CurrentUser(r.Context(), token.AccessToken)
	if err != nil {
		log.Warn("fetching discord profile failed", "error", err)
		h.toRegister(w, r)
		return
	}

	id := session.Identity{ID: user.ID, Name: user.DisplayName(), AvatarURL: user.AvatarURL()}
	claims := h.builder.Build(r.Context(), id, token.AccessToken, token.Expiry)
	if !h.writeSession(w, r, claims) {
		h.toRegister(w, r)
		return
	}

	log.Info("signed in", "userId", id.ID, "hasAccess", claims.HasAccess())
	if claims.HasAccess() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.toRegister(w, r)
}

// Update handles POST /auth/session/update. It re-reads the recruitment
// record and reissues the cookie.
func (h *AuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
		return
	}

	updated := h.builder.Update(r.Context(), *claims)
	if !h.writeSession(w, r, updated) {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update session", requestID)
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
		return
	}
	response.Success(w, http.StatusOK, toSessionResponse(&updated), requestID)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// returnPath sends a form post back to the local page it came from.
func returnPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/profile"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/profile"
	}
	return ref.Path
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, h.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Session handles GET /api/session. The provider token is never exposed.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
		return
	}

	response.Success(w, http.StatusOK, toSessionResponse(claims), requestID)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, claims session.Claims) bool {
	value, err := h.sealer.Seal(claims)
	if err != nil {
		middleware.Logger(r.Context()).Error("sealing session failed", "error", err)
		return false
	}
	session.SetCookie(w, value, claims.ExpiresAt.Time, h.secure)
	return true
}

func (h *AuthHandler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) toRegister(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, middleware.RegisterPath, http.StatusSeeOther)
}
