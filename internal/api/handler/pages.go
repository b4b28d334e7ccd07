package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/badges"
	"github.com/redline-rp/portal/internal/changelog"
	"github.com/redline-rp/portal/internal/content"
	"github.com/redline-rp/portal/internal/guard"
	"github.com/redline-rp/portal/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageHandler renders the informational pages. Each render first runs the
// live access re-check and hands the resulting Viewer to the template.
type PageHandler struct {
	site      *content.Site
	guard     AccessChecker
	changelog ChangelogSource
	sealer    SessionSealer
	secure    bool
}

// NewPageHandler creates a new PageHandler. changelog and sealer may be nil.
func NewPageHandler(site *content.Site, g AccessChecker, cl ChangelogSource, sealer SessionSealer, secureCookies bool) *PageHandler {
	return &PageHandler{
		site:      site,
		guard:     g,
		changelog: cl,
		sealer:    sealer,
		secure:    secureCookies,
	}
}

type pageData struct {
	Site      *content.Site
	Page      *content.Page
	Viewer    guard.Viewer
	Nav       []content.NavItem
	Footer    []content.FooterLink
	Changelog []changelog.Entry
	Tiers     []badges.Tier
	Shell     bool
}

// ServeHTTP renders the page registered for the request path.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context())

	page, ok := h.site.PageByPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	claims, _ := session.ClaimsFromContext(r.Context())
	v, err := viewerFor(r.Context(), h.guard, claims, page.Path)
	if err != nil {
		log.Debug("page access check abandoned", "path", page.Path, "error", err)
		return
	}

	if !v.IsLoading {
		refreshSession(w, r, h.sealer, claims, v, h.secure)
	}

	gated := !middleware.Exempt(page.Path)
	// A signed-in visitor only stays on /re-register when a legacy profile
	// or a live membership backs the visit.
	reRegister := page.Path == guard.ReRegisterRoute && claims != nil
	switch {
	case v.IsLoading && (gated || reRegister):
		h.render(w, r, h.shell(page, v))
		return
	case gated && !v.IsVerified:
		http.Redirect(w, r, middleware.RegisterPath, http.StatusSeeOther)
		return
	case reRegister && !v.IsVerified && !v.Legacy:
		http.Redirect(w, r, middleware.RegisterPath, http.StatusSeeOther)
		return
	}

	data := pageData{
		Site:   h.site,
		Page:   page,
		Viewer: v,
		Nav:    h.site.NavFor(v.IsVerified),
		Footer: h.site.FooterFor(v.IsVerified),
	}
	switch page.Slug {
	case "changelog":
		data.Changelog = h.changelogEntries(r)
	case "badges":
		data.Tiers = h.site.BadgeTiers
	}
	h.render(w, r, data)
}

// shell is the page rendered while a check is still pending. It carries
// nothing that the gate would withhold from an unverified visitor.
func (h *PageHandler) shell(page *content.Page, v guard.Viewer) pageData {
	return pageData{
		Site:   h.site,
		Page:   &content.Page{Path: page.Path, Title: page.Title},
		Viewer: guard.Viewer{Identity: v.Identity, IsLoading: true},
		Nav:    h.site.NavFor(false),
		Footer: h.site.FooterFor(false),
		Shell:  true,
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page", data); err != nil {
		middleware.Logger(r.Context()).Error("rendering page failed", "path", data.Page.Path, "error", err)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) changelogEntries(r *http.Request) []changelog.Entry {
	if h.changelog == nil {
		return nil
	}
	entries, err := h.changelog.List(r.Context())
	if err != nil {
		middleware.Logger(r.Context()).Warn("changelog unavailable for page", "error", err)
		return nil
	}
	return entries
}
