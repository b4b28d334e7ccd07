package legacy

import "context"

// Repository provides read access to legacy member profiles.
type Repository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*Profile, error)
}
