package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/redline-rp/portal/internal/badges"
	"github.com/redline-rp/portal/internal/content"
)

const dateLayout = "2006-01-02"

func newBadgesCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "badges <joined YYYY-MM-DD>",
		Short: "Compute tenure and the earned badge for a join date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := time.Parse(dateLayout, args[0])
			if err != nil {
				return fmt.Errorf("invalid join date %q: %w", args[0], err)
			}
			now := time.Now()
			if at != "" {
				if now, err = time.Parse(dateLayout, at); err != nil {
					return fmt.Errorf("invalid --at date %q: %w", at, err)
				}
			}

			site, err := content.Load()
			if err != nil {
				return err
			}

			span := badges.Elapsed(since, now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tenure: %s\n", span)
			if t := badges.Earned(span, site.BadgeTiers); t != nil {
				fmt.Fprintf(out, "Badge:  %s\n", t.Name)
			} else {
				fmt.Fprintln(out, "Badge:  none yet")
			}
			if t := badges.Next(span, site.BadgeTiers); t != nil {
				fmt.Fprintf(out, "Next:   %s at %d months\n", t.Name, t.Months)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this date instead of today")
	return cmd
}
