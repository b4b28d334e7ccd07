package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/changelog"
)

func newChangelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog",
		Short: "List the published releases shown on the changelog page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			svc := changelog.NewService(cfg.GitHubAPIURL, cfg.ChangelogRepo, cfg.GitHubToken, cfg.ChangelogCacheTTL, httpClient(cfg))
			entries, err := svc.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing releases: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tDATE\tTITLE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Version, e.Date.Format(dateLayout), e.Title)
			}
			return tw.Flush()
		},
	}
}
