package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/redline-rp/portal/internal/access"
)

// Identity is the stable part of a Discord profile kept in the session.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Claims is the session payload. The optional fields are absent until the
// builder has computed them; absent flags read as false.
type Claims struct {
	jwt.RegisteredClaims

	Identity    Identity `json:"identity"`
	AccessToken *string  `json:"accessToken,omitempty"`
	IsAdmin     *bool    `json:"isAdmin,omitempty"`
	IsMember    *bool    `json:"isMember,omitempty"`
	IsSpecial   *bool    `json:"isSpecial,omitempty"`
}

// Flags returns the access flags, treating absent values as false.
func (c *Claims) Flags() access.Flags {
	if c == nil {
		return access.Flags{}
	}
	return access.Flags{
		IsMember:  deref(c.IsMember),
		IsSpecial: deref(c.IsSpecial),
		IsAdmin:   deref(c.IsAdmin),
	}
}

// HasAccess applies the access policy to the stored flags.
func (c *Claims) HasAccess() bool {
	return access.HasAccess(c.Flags())
}

// ProviderToken returns the Discord access token, or "" when absent.
func (c *Claims) ProviderToken() string {
	if c == nil || c.AccessToken == nil {
		return ""
	}
	return *c.AccessToken
}

func deref(b *bool) bool {
	return b != nil && *b
}

func ptr[T any](v T) *T {
	return &v
}
