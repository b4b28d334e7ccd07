package content

import (
	_ "embed"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/redline-rp/portal/internal/badges"
)

//go:embed site.yaml
var siteYAML []byte

// NavItem is a header navigation link.
type NavItem struct {
	Label       string `json:"label"`
	Path        string `json:"path"`
	MembersOnly bool   `json:"membersOnly,omitempty"`
}

// FooterLink is a footer link.
type FooterLink struct {
	Label       string `json:"label"`
	URL         string `json:"url"`
	MembersOnly bool   `json:"membersOnly,omitempty"`
}

// Section is one block of page text.
type Section struct {
	Heading string   `json:"heading,omitempty"`
	Body    string   `json:"body,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Page is a static informational page.
type Page struct {
	Slug     string    `json:"slug"`
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections,omitempty"`
}

// Site is the full static content of the portal.
type Site struct {
	Name       string        `json:"name"`
	Tagline    string        `json:"tagline"`
	Navigation []NavItem     `json:"navigation"`
	Footer     []FooterLink  `json:"footer"`
	BadgeTiers []badges.Tier `json:"badgeTiers"`
	Pages      []Page        `json:"pages"`

	byPath map[string]*Page
}

// Load parses the embedded site content.
func Load() (*Site, error) {
	return Parse(siteYAML)
}

// Parse reads site content from YAML.
func Parse(data []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing site content: %w", err)
	}

	s.byPath = make(map[string]*Page, len(s.Pages))
	for i := range s.Pages {
		p := &s.Pages[i]
		if p.Path == "" {
			return nil, fmt.Errorf("page %q has no path", p.Slug)
		}
		if _, dup := s.byPath[p.Path]; dup {
			return nil, fmt.Errorf("duplicate page path %q", p.Path)
		}
		s.byPath[p.Path] = p
	}
	return &s, nil
}

// PageByPath returns the page served at path.
func (s *Site) PageByPath(path string) (*Page, bool) {
	p, ok := s.byPath[path]
	return p, ok
}

// NavFor returns the navigation visible to a viewer. Unverified viewers do
// not see member-only links.
func (s *Site) NavFor(verified bool) []NavItem {
	out := make([]NavItem, 0, len(s.Navigation))
	for _, n := range s.Navigation {
		if n.MembersOnly && !verified {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FooterFor returns the footer links visible to a viewer.
func (s *Site) FooterFor(verified bool) []FooterLink {
	out := make([]FooterLink, 0, len(s.Footer))
	for _, l := range s.Footer {
		if l.MembersOnly && !verified {
			continue
		}
		out = append(out, l)
	}
	return out
}
