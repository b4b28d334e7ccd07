package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/redline-rp/portal/internal/obs"
)

// PermissionAdministrator is the ADMINISTRATOR bit of a guild permission set.
const PermissionAdministrator = 0x8

var (
	// ErrUpstream is returned when Discord answers with a non-2xx status.
	ErrUpstream = errors.New("discord: unexpected upstream status")
	// ErrMalformed is returned when a Discord payload cannot be decoded.
	ErrMalformed = errors.New("discord: malformed response")
	// ErrGuildNotFound is returned when the user is not in the configured guild.
	ErrGuildNotFound = errors.New("discord: guild not found in user guilds")
	// ErrNotConfigured is returned when a call needs a value that is not set.
	ErrNotConfigured = errors.New("discord: not configured")
)

// User is the subset of the Discord user object the portal keeps.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

// DisplayName prefers the global display name over the unique username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL returns the CDN URL of the user's avatar, or "" when unset.
func (u User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
}

// GuildStats are the public counters of the faction guild.
type GuildStats struct {
	Name          string `json:"name"`
	MemberCount   int    `json:"approximateMemberCount"`
	PresenceCount int    `json:"approximatePresenceCount"`
}

type partialGuild struct {
	ID          string          `json:"id"`
	Permissions json.RawMessage `json:"permissions"`
}

type guildPreview struct {
	Name                     string `json:"name"`
	ApproximateMemberCount   int    `json:"approximate_member_count"`
	ApproximatePresenceCount int    `json:"approximate_presence_count"`
}

// Client talks to the Discord REST API. User-scoped calls take the OAuth
// bearer token; guild-scoped calls use the bot token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	guildID    string
	botToken   string
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBotToken sets the bot token used for guild-scoped calls.
func WithBotToken(token string) ClientOption {
	return func(c *Client) {
		c.botToken = token
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limiter.
func WithRateLimit(perSecond int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

// NewClient creates a Discord client for the given API base URL and guild.
func NewClient(baseURL, guildID string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		guildID:    guildID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GuildID returns the guild whose permissions decide admin access.
func (c *Client) GuildID() string {
	return c.guildID
}

// CurrentUser fetches the user that owns the bearer token.
func (c *Client) CurrentUser(ctx context.Context, bearer string) (User, error) {
	var u User
	if err := c.get(ctx, "/users/@me", "Bearer "+bearer, "discord_user", &u); err != nil {
		return User{}, err
	}
	if u.ID == "" {
		return User{}, fmt.Errorf("%w: user without id", ErrMalformed)
	}
	return u, nil
}

// IsGuildAdmin reports whether the bearer's user holds ADMINISTRATOR in the
// configured guild. It returns false together with the cause on every
// failure; callers treat the error as informational.
func (c *Client) IsGuildAdmin(ctx context.Context, bearer string) (bool, error) {
	if c.guildID == "" {
		return false, fmt.Errorf("%w: guild id", ErrNotConfigured)
	}

	var guilds []partialGuild
	if err := c.get(ctx, "/users/@me/guilds", "Bearer "+bearer, "discord_guilds", &guilds); err != nil {
		return false, err
	}

	for _, g := range guilds {
		if g.ID != c.guildID {
			continue
		}
		perms, err := parsePermissions(g.Permissions)
		if err != nil {
			return false, err
		}
		return HasPermission(perms, PermissionAdministrator), nil
	}
	return false, ErrGuildNotFound
}

// GuildStats returns the approximate member and online counts of the guild.
func (c *Client) GuildStats(ctx context.Context) (GuildStats, error) {
	if c.botToken == "" || c.guildID == "" {
		return GuildStats{}, fmt.Errorf("%w: bot token or guild id", ErrNotConfigured)
	}

	var p guildPreview
	if err := c.get(ctx, "/guilds/"+c.guildID+"/preview", "Bot "+c.botToken, "discord_guild_preview", &p); err != nil {
		return GuildStats{}, err
	}
	return GuildStats{
		Name:          p.Name,
		MemberCount:   p.ApproximateMemberCount,
		PresenceCount: p.ApproximatePresenceCount,
	}, nil
}

// HasPermission tests a single permission bit against a permission set.
func HasPermission(perms *big.Int, bit int64) bool {
	if perms == nil {
		return false
	}
	b := big.NewInt(bit)
	return new(big.Int).And(perms, b).Cmp(b) == 0
}

// parsePermissions accepts the permission set either as a decimal string
// (current API) or a bare number (legacy API versions).
func parsePermissions(raw json.RawMessage) (*big.Int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil, fmt.Errorf("%w: empty permissions", ErrMalformed)
	}
	perms, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: permissions %q", ErrMalformed, s)
	}
	return perms, nil
}

func (c *Client) get(ctx context.Context, path, authorization, upstream string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for discord rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building discord request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		obs.ObserveUpstream(upstream, "network", time.Since(start))
		return fmt.Errorf("calling discord %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.ObserveUpstream(upstream, "status", time.Since(start))
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		obs.ObserveUpstream(upstream, "decode", time.Since(start))
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	obs.ObserveUpstream(upstream, "ok", time.Since(start))
	return nil
}
