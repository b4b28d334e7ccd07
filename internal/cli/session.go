package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/access"
	"github.com/redline-rp/portal/internal/session"
)

type decodedSession struct {
	Identity  session.Identity `json:"identity"`
	Flags     access.Flags     `json:"flags"`
	HasAccess bool             `json:"hasAccess"`
	HasToken  bool             `json:"hasProviderToken"`
	TokenID   string           `json:"tokenId"`
	IssuedAt  *time.Time       `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect session cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <cookie-value>",
		Short: "Decrypt and verify a portal_session cookie",
		Long: `Decrypt and verify a portal_session cookie with SESSION_SECRET and print
its identity and access flags. The provider access token is never printed.

Example:
  portalctl session decode "$(pbpaste)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			codec, err := session.NewCodec(cfg.SessionSecret)
			if err != nil {
				return err
			}

			claims, err := codec.Open(args[0])
			if err != nil {
				return fmt.Errorf("decoding session: %w", err)
			}

			out := decodedSession{
				Identity:  claims.Identity,
				Flags:     claims.Flags(),
				HasAccess: claims.HasAccess(),
				HasToken:  claims.ProviderToken() != "",
				TokenID:   claims.ID,
			}
			if claims.IssuedAt != nil {
				out.IssuedAt = &claims.IssuedAt.Time
			}
			if claims.ExpiresAt != nil {
				out.ExpiresAt = &claims.ExpiresAt.Time
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})
	return cmd
}
