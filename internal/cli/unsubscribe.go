package cli

import (
	"fmt"

	"github.com/lu-zhengda/topsenders/internal/app"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/tui"
	"github.com/spf13/cobra"
)

func newUnsubscribeCmd() *cobra.Command {
	var maxFlag int

	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "List unsubscribe links found in unread emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			limit := s.cfg.Unsubscribe.MaxSearch
			if cmd.Flags().Changed("max") {
				limit = maxFlag
			}
			if limit <= 0 {
				return fmt.Errorf("--max must be positive, got %d", limit)
			}

			if !jsonFlag {
				fmt.Fprintf(cmd.OutOrStdout(), "Searching for unsubscribe links in unread emails (up to %d)...\n", limit)
			}
			listings, err := app.ScanUnsubscribeLinks(cmd.Context(), s.provider, s.retrier, s.logger,
				domain.Query{Raw: s.cfg.Fetch.Query}, limit)
			if err != nil {
				return err
			}

			if jsonFlag {
				return fprintJSON(cmd.OutOrStdout(), toJSONListings(listings))
			}
			if len(listings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unsubscribe links found in unread emails.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderUnsubscribeListings(listings))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxFlag, "max", 100, "max unread emails to search")
	return cmd
}
