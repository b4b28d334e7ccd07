package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/redline-rp/portal/internal/recruitment"
)

// GuildChecker decides the admin flag from the provider access token.
type GuildChecker interface {
	IsGuildAdmin(ctx context.Context, bearer string) (bool, error)
}

// MembershipSource returns the recruitment record of a user.
type MembershipSource interface {
	Status(ctx context.Context, userID string) (recruitment.Membership, error)
}

// Builder derives session claims from a fresh provider sign-in.
type Builder struct {
	guilds  GuildChecker
	members MembershipSource
	ttl     time.Duration
	now     func() time.Time
}

// NewBuilder creates a Builder. ttl bounds the session when the provider
// token carries no expiry.
func NewBuilder(guilds GuildChecker, members MembershipSource, ttl time.Duration) *Builder {
	return &Builder{
		guilds:  guilds,
		members: members,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Build computes all flags for a newly signed-in identity. Upstream
// failures never fail the sign-in; the affected flags are stored as false.
func (b *Builder) Build(ctx context.Context, id Identity, accessToken string, expiry time.Time) Claims {
	claims := Claims{Identity: id, AccessToken: ptr(accessToken)}

	if expiry.IsZero() {
		expiry = b.now().Add(b.ttl)
	}
	claims.ExpiresAt = jwt.NewNumericDate(expiry)

	var (
		isAdmin    bool
		membership recruitment.Membership
	)

	// Both lookups swallow their errors, so the group never cancels early.
	var g errgroup.Group
	g.Go(func() error {
		isAdmin = b.checkAdmin(ctx, id.ID, accessToken)
		return nil
	})
	g.Go(func() error {
		membership = b.lookupMembership(ctx, id.ID)
		return nil
	})
	_ = g.Wait()

	claims.IsAdmin = ptr(isAdmin)
	claims.IsMember = ptr(membership.IsMember)
	claims.IsSpecial = ptr(membership.IsSpecial)
	return claims
}

// Update re-reads the recruitment record only. Identity, admin flag,
// provider token and expiry are carried over unchanged.
func (b *Builder) Update(ctx context.Context, claims Claims) Claims {
	membership := b.lookupMembership(ctx, claims.Identity.ID)

	updated := claims
	updated.ID = ""
	updated.IsAdmin = ptr(deref(claims.IsAdmin))
	updated.IsMember = ptr(membership.IsMember)
	updated.IsSpecial = ptr(membership.IsSpecial)
	return updated
}

func (b *Builder) checkAdmin(ctx context.Context, userID, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	isAdmin, err := b.guilds.IsGuildAdmin(ctx, accessToken)
	if err != nil {
		slog.Warn("guild permission check failed; admin flag cleared", "userId", userID, "error", err)
		return false
	}
	return isAdmin
}

func (b *Builder) lookupMembership(ctx context.Context, userID string) recruitment.Membership {
	m, err := b.members.Status(ctx, userID)
	if err != nil {
		slog.Warn("recruitment status lookup failed; membership flags cleared", "userId", userID, "error", err)
		return recruitment.Membership{}
	}
	return m
}
