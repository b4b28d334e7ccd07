package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepository implements Repository on the legacy_profiles table.
type PostgresRepository struct {
	db *sql.DB
}

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// NewRepository creates a Repository backed by db.
func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// GetByDiscordID retrieves the legacy profile linked to a Discord user.
func (r *PostgresRepository) GetByDiscordID(ctx context.Context, discordID string) (*Profile, error) {
	query := `
		SELECT discord_id, nickname, joined_at, migrated_at
		FROM legacy_profiles
		WHERE discord_id = $1`

	var (
		p        Profile
		migrated sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, discordID).Scan(&p.DiscordID, &p.Nickname, &p.JoinedAt, &migrated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying legacy profile: %w", err)
	}
	if migrated.Valid {
		p.MigratedAt = &migrated.Time
	}
	return &p, nil
}
