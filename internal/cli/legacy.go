package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/legacy"
)

func newLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Inspect legacy profiles awaiting re-registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lookup <discord-user-id>",
		Short: "Show the legacy profile of a Discord user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}

			db, err := legacy.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := legacy.NewRepository(db).GetByDiscordID(cmd.Context(), args[0])
			if errors.Is(err, legacy.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No legacy profile for %s.\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"discordId": p.DiscordID,
				"nickname":  p.Nickname,
				"joinedAt":  p.JoinedAt,
				"migrated":  p.Migrated(),
			})
		},
	})
	return cmd
}
