package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redline-rp/portal/internal/api"
	"github.com/redline-rp/portal/internal/api/handler"
	"github.com/redline-rp/portal/internal/changelog"
	"github.com/redline-rp/portal/internal/config"
	"github.com/redline-rp/portal/internal/content"
	"github.com/redline-rp/portal/internal/discord"
	"github.com/redline-rp/portal/internal/guard"
	"github.com/redline-rp/portal/internal/legacy"
	"github.com/redline-rp/portal/internal/obs"
	"github.com/redline-rp/portal/internal/recruitment"
	"github.com/redline-rp/portal/internal/refresher"
	"github.com/redline-rp/portal/internal/session"
	"github.com/redline-rp/portal/internal/status"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	obs.Init()

	site, err := content.Load()
	if err != nil {
		slog.Error("failed to load site content", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	discordClient := discord.NewClient(cfg.DiscordAPIURL, cfg.DiscordGuildID,
		discord.WithHTTPClient(httpClient),
		discord.WithBotToken(cfg.DiscordBotToken),
		discord.WithRateLimit(cfg.DiscordRateLimit),
	)
	recruitmentClient := recruitment.NewClient(cfg.BackendURL, cfg.RecruitmentAPIKey, httpClient)

	db, legacyRepo := initLegacyStore(cfg)
	if db != nil {
		defer db.Close()
	}

	changelogService := changelog.NewService(cfg.GitHubAPIURL, cfg.ChangelogRepo, cfg.GitHubToken, cfg.ChangelogCacheTTL, httpClient)
	statusChecker := status.NewChecker(cfg.BackendURL, cfg.StatusAPIKey, cfg.StatusServiceName, httpClient)

	deps := api.RouterDeps{
		Version:   cfg.Version,
		Guard:     guard.New(recruitmentClient, legacyRepo),
		Changelog: changelogService,
		Status:    statusChecker,
		Guild:     discordClient,
		Site:      site,
		Features: handler.Features{
			OAuth:       cfg.OAuthEnabled(),
			Recruitment: cfg.BackendURL != "" && cfg.RecruitmentAPIKey != "",
			Changelog:   cfg.ChangelogRepo != "",
			DiscordBot:  cfg.DiscordBotToken != "",
			LegacyStore: db != nil,
		},
		SecureCookies: cfg.SecureCookies,
		APIRateLimit:  cfg.APIRateLimit,
	}
	if db != nil {
		deps.DBPinger = db
	}

	if cfg.SessionSecret != "" {
		codec, err := session.NewCodec(cfg.SessionSecret)
		if err != nil {
			slog.Error("failed to initialise session codec", "error", err)
			os.Exit(1)
		}
		deps.Codec = codec
	} else {
		slog.Warn("SESSION_SECRET not set; sign-in is disabled")
	}

	if cfg.OAuthEnabled() {
		deps.OAuth = discord.NewOAuth(discord.OAuthConfig(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.RedirectURL()), httpClient)
		deps.Profiles = discordClient
		deps.Builder = session.NewBuilder(discordClient, recruitmentClient, cfg.SessionTTL)
	} else {
		slog.Warn("discord oauth not configured; sign-in is disabled")
	}

	router := api.NewRouter(deps)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	if cfg.RefreshInterval > 0 && cfg.ChangelogRepo != "" {
		go refresher.New(changelogService, statusChecker, cfg.RefreshInterval).Start(bgCtx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting portal server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))
}

// initLegacyStore connects to the legacy profile database. Without
// DATABASE_URL, or when the database is unreachable, re-registration
// fallback is disabled and the portal runs without it.
func initLegacyStore(cfg *config.Config) (*sql.DB, legacy.Repository) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := legacy.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("legacy database unavailable; re-registration fallback disabled", "error", err)
		return nil, nil
	}
	return db, legacy.NewRepository(db)
}
