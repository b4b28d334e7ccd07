package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// Nothing is required: a missing value disables the feature that needs it.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	DiscordClientID     string `envconfig:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `envconfig:"DISCORD_CLIENT_SECRET"`
	DiscordBotToken     string `envconfig:"DISCORD_BOT_TOKEN"`
	DiscordAPIURL       string `envconfig:"DISCORD_API_URL" default:"https://discord.com/api/v10"`
	DiscordGuildID      string `envconfig:"DISCORD_GUILD_ID"`
	DiscordRateLimit    int    `envconfig:"DISCORD_RATE_LIMIT" default:"5"`

	SessionSecret string        `envconfig:"SESSION_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SecureCookies bool          `envconfig:"SECURE_COOKIES" default:"false"`

	BackendURL        string `envconfig:"BACKEND_URL"`
	RecruitmentAPIKey string `envconfig:"RECRUITMENT_API_KEY"`
	StatusAPIKey      string `envconfig:"STATUS_API_KEY"`
	StatusServiceName string `envconfig:"STATUS_SERVICE_NAME" default:"Site API"`

	ChangelogRepo     string        `envconfig:"CHANGELOG_REPO"`
	GitHubAPIURL      string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	GitHubToken       string        `envconfig:"GITHUB_TOKEN"`
	ChangelogCacheTTL time.Duration `envconfig:"CHANGELOG_CACHE_TTL" default:"60s"`
	// RefreshInterval schedules background cache warming. Zero disables it.
	RefreshInterval   time.Duration `envconfig:"REFRESH_INTERVAL" default:"5m"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s"`
	APIRateLimit      int           `envconfig:"API_RATE_LIMIT" default:"60"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OAuthEnabled reports whether Discord sign-in can be offered.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != "" && c.SessionSecret != ""
}

// RedirectURL is the OAuth callback registered with Discord.
func (c *Config) RedirectURL() string {
	return c.BaseURL + "/auth/callback"
}
