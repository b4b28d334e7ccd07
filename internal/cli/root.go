// Package cli implements portalctl, the operator tool for the portal.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/config"
)

// NewRootCmd builds the portalctl command tree. Configuration is read from
// the same environment variables as the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operator tooling for the faction portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		newSessionCmd(),
		newAccessCmd(),
		newBadgesCmd(),
		newLegacyCmd(),
		newChangelogCmd(),
	)
	return root
}

// ExecuteContext runs portalctl with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTPClientTimeout}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
