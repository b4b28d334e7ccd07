package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-rp/portal/internal/content"
)

func TestLoad_EmbeddedSite(t *testing.T) {
	site, err := content.Load()
	require.NoError(t, err)

	for _, path := range []string{"/", "/rules", "/services", "/about", "/badges", "/profile", "/register", "/re-register"} {
		_, ok := site.PageByPath(path)
		assert.True(t, ok, "missing page %s", path)
	}
	assert.NotEmpty(t, site.BadgeTiers)
}

func TestNavFor_HidesMemberLinks(t *testing.T) {
	site, err := content.Load()
	require.NoError(t, err)

	for _, n := range site.NavFor(false) {
		assert.False(t, n.MembersOnly, "member link %s shown to guest", n.Path)
	}
	for _, l := range site.FooterFor(false) {
		assert.False(t, l.MembersOnly, "member link %s shown to guest", l.URL)
	}
	assert.Len(t, site.NavFor(true), len(site.Navigation))
	assert.Greater(t, len(site.NavFor(true)), len(site.NavFor(false)))
}

func TestParse_Errors(t *testing.T) {
	_, err := content.Parse([]byte("pages: [{slug: a}]"))
	assert.Error(t, err)

	_, err = content.Parse([]byte("pages: [{slug: a, path: /a}, {slug: b, path: /a}]"))
	assert.Error(t, err)

	_, err = content.Parse([]byte("pages: {"))
	assert.Error(t, err)
}
