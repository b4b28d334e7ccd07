package handler

import (
	"context"
	"net/http"

	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/api/response"
	"github.com/redline-rp/portal/internal/changelog"
	"github.com/redline-rp/portal/internal/discord"
	"github.com/redline-rp/portal/internal/status"
)

// ChangelogSource lists changelog entries.
type ChangelogSource interface {
	List(ctx context.Context) ([]changelog.Entry, error)
	Refresh(ctx context.Context) ([]changelog.Entry, error)
}

// StatusSource lists service states. It never fails.
type StatusSource interface {
	Services(ctx context.Context) []status.Service
}

// GuildStatsSource returns public guild counters.
type GuildStatsSource interface {
	GuildStats(ctx context.Context) (discord.GuildStats, error)
}

// ProxyHandler serves the read-only upstream proxies. Responses are bare
// JSON arrays or objects, not envelopes.
type ProxyHandler struct {
	changelog ChangelogSource
	status    StatusSource
	guild     GuildStatsSource
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(cl ChangelogSource, st StatusSource, guild GuildStatsSource) *ProxyHandler {
	return &ProxyHandler{changelog: cl, status: st, guild: guild}
}

// Changelog handles GET /api/changelog. On failure it answers an empty
// array with the upstream status code.
func (h *ProxyHandler) Changelog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.changelog.List(r.Context())
	if err != nil {
		middleware.Logger(r.Context()).Warn("changelog fetch failed", "error", err)
		response.Raw(w, changelog.StatusCode(err), []changelog.Entry{})
		return
	}
	response.Raw(w, http.StatusOK, entries)
}

// RefreshChangelog handles POST /api/admin/changelog/refresh.
func (h *ProxyHandler) RefreshChangelog(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	entries, err := h.changelog.Refresh(r.Context())
	if err != nil {
		middleware.Logger(r.Context()).Warn("changelog refresh failed", "error", err)
		response.Err(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Changelog could not be refreshed", requestID)
		return
	}
	response.Success(w, http.StatusOK, map[string]int{"entries": len(entries)}, requestID)
}

// Status handles GET /api/status.
func (h *ProxyHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, h.status.Services(r.Context()))
}

// DiscordStats handles GET /api/discord/stats. Failures answer zero counts.
func (h *ProxyHandler) DiscordStats(w http.ResponseWriter, r *http.Request) {
	var stats discord.GuildStats
	if h.guild != nil {
		s, err := h.guild.GuildStats(r.Context())
		if err != nil {
			middleware.Logger(r.Context()).Warn("guild stats fetch failed", "error", err)
		} else {
			stats = s
		}
	}
	response.Raw(w, http.StatusOK, stats)
}
