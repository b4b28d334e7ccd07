package discord_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-rp/portal/internal/discord"
)

const testGuildID = "111222333444555666"

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func guildsHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me/guilds", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestIsGuildAdmin(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    bool
		wantErr error
	}{
		{
			name: "administrator bit set",
			body: `[{"id":"1","permissions":"8"},{"id":"` + testGuildID + `","permissions":"2147483656"}]`,
			want: true,
		},
		{
			name: "all low bits set",
			body: `[{"id":"` + testGuildID + `","permissions":"2147483647"}]`,
			want: true,
		},
		{
			name: "no administrator bit",
			body: `[{"id":"` + testGuildID + `","permissions":"104324673"}]`,
			want: false,
		},
		{
			name: "permissions beyond 64 bits",
			body: `[{"id":"` + testGuildID + `","permissions":"36893488147419103240"}]`,
			want: true,
		},
		{
			name: "legacy numeric permissions",
			body: `[{"id":"` + testGuildID + `","permissions":8}]`,
			want: true,
		},
		{
			name:    "guild not present",
			body:    `[{"id":"999","permissions":"8"}]`,
			want:    false,
			wantErr: discord.ErrGuildNotFound,
		},
		{
			name:    "unparseable permissions",
			body:    `[{"id":"` + testGuildID + `","permissions":"lots"}]`,
			want:    false,
			wantErr: discord.ErrMalformed,
		},
		{
			name:    "malformed payload",
			body:    `{"message":"not a list"}`,
			want:    false,
			wantErr: discord.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, guildsHandler(t, tt.body))
			c := discord.NewClient(srv.URL, testGuildID)

			got, err := c.IsGuildAdmin(context.Background(), "user-token")

			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsGuildAdmin_NonSuccessStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := discord.NewClient(srv.URL, testGuildID)

	got, err := c.IsGuildAdmin(context.Background(), "user-token")

	assert.False(t, got)
	assert.ErrorIs(t, err, discord.ErrUpstream)
}

func TestIsGuildAdmin_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := discord.NewClient(url, testGuildID)

	got, err := c.IsGuildAdmin(context.Background(), "user-token")

	assert.False(t, got)
	assert.Error(t, err)
}

func TestIsGuildAdmin_MissingGuildID(t *testing.T) {
	c := discord.NewClient("http://127.0.0.1:0", "")

	got, err := c.IsGuildAdmin(context.Background(), "user-token")

	assert.False(t, got)
	assert.ErrorIs(t, err, discord.ErrNotConfigured)
}

func TestCurrentUser(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"42","username":"ranger","global_name":"Ranger","avatar":"abc"}`))
	})
	c := discord.NewClient(srv.URL, testGuildID)

	u, err := c.CurrentUser(context.Background(), "user-token")

	require.NoError(t, err)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "Ranger", u.DisplayName())
	assert.Equal(t, "https://cdn.discordapp.com/avatars/42/abc.png", u.AvatarURL())
}

func TestCurrentUser_MissingID(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"username":"ghost"}`))
	})
	c := discord.NewClient(srv.URL, testGuildID)

	_, err := c.CurrentUser(context.Background(), "user-token")

	assert.ErrorIs(t, err, discord.ErrMalformed)
}

func TestGuildStats(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guilds/"+testGuildID+"/preview", r.URL.Path)
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"name":"Redline","approximate_member_count":420,"approximate_presence_count":69}`))
	})
	c := discord.NewClient(srv.URL, testGuildID, discord.WithBotToken("bot-token"), discord.WithRateLimit(10))

	stats, err := c.GuildStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, discord.GuildStats{Name: "Redline", MemberCount: 420, PresenceCount: 69}, stats)
}

func TestGuildStats_WithoutBotToken(t *testing.T) {
	c := discord.NewClient("http://127.0.0.1:0", testGuildID)

	_, err := c.GuildStats(context.Background())

	assert.ErrorIs(t, err, discord.ErrNotConfigured)
}

func TestHasPermission(t *testing.T) {
	assert.True(t, discord.HasPermission(big.NewInt(0x8), discord.PermissionAdministrator))
	assert.True(t, discord.HasPermission(big.NewInt(0xFF), discord.PermissionAdministrator))
	assert.False(t, discord.HasPermission(big.NewInt(0x7), discord.PermissionAdministrator))
	assert.False(t, discord.HasPermission(nil, discord.PermissionAdministrator))
}
