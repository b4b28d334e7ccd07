package legacy

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no legacy profile exists for a Discord id.
var ErrNotFound = errors.New("legacy profile not found")

// Profile is a member record imported from the previous portal.
type Profile struct {
	DiscordID  string
	Nickname   string
	JoinedAt   time.Time
	MigratedAt *time.Time
}

// Migrated reports whether the profile has already been re-registered.
func (p *Profile) Migrated() bool {
	return p.MigratedAt != nil
}
