package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/access"
	"github.com/redline-rp/portal/internal/recruitment"
)

type accessReport struct {
	UserID    string             `json:"userId"`
	Status    recruitment.Status `json:"status"`
	Flags     access.Flags       `json:"flags"`
	HasAccess bool               `json:"hasAccess"`
}

func newAccessCmd() *cobra.Command {
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "access <discord-user-id>",
		Short: "Evaluate live access for a Discord user",
		Long: `Query the recruitment backend for a user and apply the access policy.
The admin flag cannot be derived without the user's own OAuth token; pass
--admin to evaluate as an administrator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client := recruitment.NewClient(cfg.BackendURL, cfg.RecruitmentAPIKey, httpClient(cfg))
			m, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: recruitment lookup failed: %v\n", err)
			}

			flags := access.Flags{IsMember: m.IsMember, IsSpecial: m.IsSpecial, IsAdmin: isAdmin}
			return printJSON(cmd.OutOrStdout(), accessReport{
				UserID:    args[0],
				Status:    m.Status,
				Flags:     flags,
				HasAccess: access.HasAccess(flags),
			})
		},
	}

	cmd.Flags().BoolVar(&isAdmin, "admin", false, "evaluate with the admin flag set")
	return cmd
}
