package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/redline-rp/portal/internal/access"
	"github.com/redline-rp/portal/internal/legacy"
	"github.com/redline-rp/portal/internal/recruitment"
	"github.com/redline-rp/portal/internal/session"
)

// ReRegisterRoute is the page on which legacy members may continue
// although their current recruitment record denies access.
const ReRegisterRoute = "/re-register"

// ErrSuperseded is returned to a caller whose check was replaced by a newer
// check for the same identity and route.
var ErrSuperseded = errors.New("guard: check superseded")

// MembershipSource returns the live recruitment record of a user.
type MembershipSource interface {
	Status(ctx context.Context, userID string) (recruitment.Membership, error)
}

// Viewer is the per-request access state handed to page rendering.
type Viewer struct {
	Identity   *session.Identity `json:"identity,omitempty"`
	Flags      access.Flags      `json:"flags"`
	IsVerified bool              `json:"isVerified"`
	IsLoading  bool              `json:"isLoading"`
	Legacy     bool              `json:"legacy,omitempty"`
}

// Request identifies one check: the session being viewed and the route.
type Request struct {
	Claims *session.Claims
	Route  string
}

type key struct {
	userID string
	route  string
}

type task struct {
	cancel     context.CancelFunc
	superseded bool
}

// Guard re-validates access against live upstream data, independently of
// the flags cached in the session.
type Guard struct {
	members MembershipSource
	legacy  legacy.Repository

	mu    sync.Mutex
	tasks map[key]*task
}

// New creates a Guard. legacyRepo may be nil, which disables the
// re-registration fallback.
func New(members MembershipSource, legacyRepo legacy.Repository) *Guard {
	return &Guard{
		members: members,
		legacy:  legacyRepo,
		tasks:   make(map[key]*task),
	}
}

// Check recomputes access for the session. Only one check per
// (identity, route) runs at a time: starting a new one cancels the
// previous, whose caller gets ErrSuperseded.
func (g *Guard) Check(ctx context.Context, req Request) (Viewer, error) {
	if req.Claims == nil || req.Claims.Identity.ID == "" {
		return Viewer{}, nil
	}

	k := key{userID: req.Claims.Identity.ID, route: req.Route}
	taskCtx, t := g.start(ctx, k)
	defer g.finish(k, t)

	v := g.evaluate(taskCtx, req)

	g.mu.Lock()
	superseded := t.superseded
	g.mu.Unlock()
	if superseded {
		return Viewer{}, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return Viewer{}, err
	}
	return v, nil
}

// State reports the in-flight status for a session and route without
// starting a check.
func (g *Guard) State(claims *session.Claims, route string) Viewer {
	if claims == nil {
		return Viewer{}
	}
	g.mu.Lock()
	_, inFlight := g.tasks[key{userID: claims.Identity.ID, route: route}]
	g.mu.Unlock()

	id := claims.Identity
	return Viewer{Identity: &id, IsLoading: inFlight}
}

func (g *Guard) start(ctx context.Context, k key) (context.Context, *task) {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}

	g.mu.Lock()
	if prev, ok := g.tasks[k]; ok {
		prev.superseded = true
		prev.cancel()
	}
	g.tasks[k] = t
	g.mu.Unlock()

	return taskCtx, t
}

func (g *Guard) finish(k key, t *task) {
	g.mu.Lock()
	if g.tasks[k] == t {
		delete(g.tasks, k)
	}
	g.mu.Unlock()
	t.cancel()
}

func (g *Guard) evaluate(ctx context.Context, req Request) Viewer {
	id := req.Claims.Identity
	membership, err := g.members.Status(ctx, id.ID)
	if err != nil {
		slog.Warn("guard: recruitment re-check failed", "userId", id.ID, "route", req.Route, "error", err)
	}

	flags := access.Flags{
		IsMember:  membership.IsMember,
		IsSpecial: membership.IsSpecial,
		IsAdmin:   req.Claims.Flags().IsAdmin,
	}
	v := Viewer{Identity: &id, Flags: flags, IsVerified: access.HasAccess(flags)}

	if !v.IsVerified && req.Route == ReRegisterRoute && ctx.Err() == nil {
		v.Legacy = g.hasLegacyProfile(ctx, id.ID)
		v.IsVerified = v.Legacy
	}
	return v
}

func (g *Guard) hasLegacyProfile(ctx context.Context, userID string) bool {
	if g.legacy == nil {
		return false
	}
	p, err := g.legacy.GetByDiscordID(ctx, userID)
	if err != nil {
		if !errors.Is(err, legacy.ErrNotFound) {
			slog.Warn("guard: legacy profile lookup failed", "userId", userID, "error", err)
		}
		return false
	}
	return !p.Migrated()
}
