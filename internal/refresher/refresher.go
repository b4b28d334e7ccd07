package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/redline-rp/portal/internal/changelog"
	"github.com/redline-rp/portal/internal/status"
)

// ChangelogSource is the cache kept warm by the refresher.
type ChangelogSource interface {
	Refresh(ctx context.Context) ([]changelog.Entry, error)
}

// StatusSource is probed on every tick so upstream metrics stay current.
type StatusSource interface {
	Services(ctx context.Context) []status.Service
}

// Refresher periodically reloads the changelog ahead of its cache expiry
// and probes the backend status endpoint.
type Refresher struct {
	changelog ChangelogSource
	status    StatusSource
	interval  time.Duration
}

// New creates a new Refresher. status may be nil.
func New(cl ChangelogSource, st StatusSource, interval time.Duration) *Refresher {
	return &Refresher{
		changelog: cl,
		status:    st,
		interval:  interval,
	}
}

// Start runs one refresh immediately, then one per interval. It blocks
// until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	slog.Info("refresher started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	entries, err := r.changelog.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("refresher: changelog refresh failed", "error", err)
		}
	} else {
		slog.Debug("refresher: changelog refreshed", "entries", len(entries))
	}

	if r.status == nil || ctx.Err() != nil {
		return
	}
	offline := 0
	for _, s := range r.status.Services(ctx) {
		if s.Status != status.Online {
			offline++
		}
	}
	if offline > 0 {
		slog.Warn("refresher: services offline", "count", offline)
	}
}
