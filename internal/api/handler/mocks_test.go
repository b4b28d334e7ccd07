package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/redline-rp/portal/internal/changelog"
	"github.com/redline-rp/portal/internal/discord"
	"github.com/redline-rp/portal/internal/guard"
	"github.com/redline-rp/portal/internal/session"
	"github.com/redline-rp/portal/internal/status"
)

type mockOAuth struct {
	token   *oauth2.Token
	err     error
	gotCode string
}

func (m *mockOAuth) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://discord.test/oauth2/authorize?state=" + state
}

func (m *mockOAuth) Exchange(_ context.Context, code string, _ ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	m.gotCode = code
	return m.token, m.err
}

type mockProfiles struct {
	user discord.User
	err  error
}

func (m *mockProfiles) CurrentUser(_ context.Context, _ string) (discord.User, error) {
	return m.user, m.err
}

type mockBuilder struct {
	buildFn  func(id session.Identity, accessToken string, expiry time.Time) session.Claims
	updateFn func(c session.Claims) session.Claims
}

func (m *mockBuilder) Build(_ context.Context, id session.Identity, accessToken string, expiry time.Time) session.Claims {
	return m.buildFn(id, accessToken, expiry)
}

func (m *mockBuilder) Update(_ context.Context, c session.Claims) session.Claims {
	return m.updateFn(c)
}

type mockGuard struct {
	mu     sync.Mutex
	viewer guard.Viewer
	err    error
	routes []string
}

func (m *mockGuard) Check(_ context.Context, req guard.Request) (guard.Viewer, error) {
	m.mu.Lock()
	m.routes = append(m.routes, req.Route)
	m.mu.Unlock()
	return m.viewer, m.err
}

func (m *mockGuard) State(claims *session.Claims, _ string) guard.Viewer {
	if claims == nil {
		return guard.Viewer{}
	}
	id := claims.Identity
	return guard.Viewer{Identity: &id, IsLoading: true}
}

type mockChangelog struct {
	entries   []changelog.Entry
	err       error
	refreshed int
}

func (m *mockChangelog) List(_ context.Context) ([]changelog.Entry, error) {
	return m.entries, m.err
}

func (m *mockChangelog) Refresh(_ context.Context) ([]changelog.Entry, error) {
	m.refreshed++
	return m.entries, m.err
}

type mockStatus struct {
	services []status.Service
}

func (m *mockStatus) Services(_ context.Context) []status.Service {
	return m.services
}

type mockGuild struct {
	stats discord.GuildStats
	err   error
}

func (m *mockGuild) GuildStats(_ context.Context) (discord.GuildStats, error) {
	return m.stats, m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(_ context.Context) error {
	return m.err
}

func boolPtr(b bool) *bool { return &b }

func newCodec(t *testing.T) *session.Codec {
	t.Helper()
	codec, err := session.NewCodec("test-secret-with-enough-entropy")
	require.NoError(t, err)
	return codec
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func withClaims(r *http.Request, c *session.Claims) *http.Request {
	return r.WithContext(session.ContextWithClaims(r.Context(), c))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
