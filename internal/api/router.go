package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/redline-rp/portal/internal/api/handler"
	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/content"
	"github.com/redline-rp/portal/internal/obs"
)

// SessionCodec seals and opens session cookies.
type SessionCodec interface {
	middleware.SessionOpener
	handler.SessionSealer
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Version  string
	DBPinger handler.DBPinger
	Features handler.Features

	// Codec is nil when no session secret is configured; sign-in is then
	// unavailable and every gated page redirects to registration.
	Codec    SessionCodec
	OAuth    handler.OAuthProvider
	Profiles handler.ProfileFetcher
	Builder  handler.SessionBuilder

	Guard     handler.AccessChecker
	Changelog handler.ChangelogSource
	Status    handler.StatusSource
	Guild     handler.GuildStatsSource
	Site      *content.Site

	SecureCookies bool
	// APIRateLimit is requests per minute per client IP on /api and /auth.
	// Zero disables limiting.
	APIRateLimit  int
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	var opener middleware.SessionOpener
	var sealer handler.SessionSealer
	if deps.Codec != nil {
		opener, sealer = deps.Codec, deps.Codec
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(obs.Instrument)
	r.Use(middleware.Session(opener))
	r.Use(middleware.Gate)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version, deps.Features)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/metrics", obs.Handler().ServeHTTP)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	limit := func(r chi.Router) {
		if deps.APIRateLimit > 0 {
			r.Use(httprate.LimitByIP(deps.APIRateLimit, time.Minute))
		}
	}

	authHandler := handler.NewAuthHandler(deps.OAuth, deps.Profiles, deps.Builder, sealer, deps.SecureCookies)
	proxyHandler := handler.NewProxyHandler(deps.Changelog, deps.Status, deps.Guild)
	accessHandler := handler.NewAccessHandler(deps.Guard, sealer, deps.SecureCookies)
	badgesHandler := handler.NewBadgesHandler(deps.Site.BadgeTiers)

	r.Route("/auth", func(r chi.Router) {
		limit(r)
		if deps.OAuth != nil && sealer != nil {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
			r.With(middleware.RequireSession).Post("/session/update", authHandler.Update)
		}
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		limit(r)
		r.Get("/changelog", proxyHandler.Changelog)
		r.Get("/status", proxyHandler.Status)
		r.Get("/discord/stats", proxyHandler.DiscordStats)
		r.Get("/badges", badgesHandler.ServeHTTP)
		r.Get("/access", accessHandler.ServeHTTP)
		r.With(middleware.RequireSession).Get("/session", authHandler.Session)
		r.With(middleware.RequireAdmin).Post("/admin/changelog/refresh", proxyHandler.RefreshChangelog)
	})

	pageHandler := handler.NewPageHandler(deps.Site, deps.Guard, deps.Changelog, sealer, deps.SecureCookies)
	for _, p := range deps.Site.Pages {
		r.Get(p.Path, pageHandler.ServeHTTP)
	}

	return r
}
