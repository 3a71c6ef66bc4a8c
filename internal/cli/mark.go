package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/lu-zhengda/topsenders/internal/app"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/tui"
	"github.com/spf13/cobra"
)

func newMarkCmd() *cobra.Command {
	var unreadFlag bool

	cmd := &cobra.Command{
		Use:   "mark <sender>...",
		Short: "Mark every email from the given senders as read or unread",
		Long: "Mark every email from each sender as read (or unread with --unread).\n" +
			"Senders are matched literally, the way they appear in the From header.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			senders, err := parseSenders(args)
			if err != nil {
				return err
			}

			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			target := domain.Read
			if unreadFlag {
				target = domain.Unread
			}

			var out io.Writer = cmd.OutOrStdout()
			if jsonFlag {
				out = io.Discard
			}
			svc := app.NewService(s.provider, s.journal, tui.NewTerminal(os.Stdin, out), nil, s.logger, app.ServiceOptions{
				PageSize:        s.cfg.Fetch.PageSize,
				Retrier:         s.retrier,
				MutatePacer:     s.mutatePacer(),
				MutateBatchSize: s.cfg.Mutate.BatchSize,
			})

			report, err := svc.MarkSenders(cmd.Context(), senders, target)
			if err != nil {
				return err
			}

			if jsonFlag {
				if err := fprintJSON(cmd.OutOrStdout(), toJSONReport(report)); err != nil {
					return err
				}
			}
			if failed := len(report.Order) - len(report.Succeeded()); failed > 0 {
				return fmt.Errorf("%d of %d senders were not fully marked %s", failed, len(report.Order), target)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadFlag, "unread", false, "mark as unread instead of read")
	return cmd
}

// parseSenders turns arguments into sender keys, rejecting any that would not
// scope a search to a single sender.
func parseSenders(args []string) ([]domain.SenderKey, error) {
	senders := make([]domain.SenderKey, len(args))
	for i, a := range args {
		k := domain.SenderKey(a)
		if !k.Searchable() {
			return nil, fmt.Errorf("invalid sender %q: %w", a, domain.ErrEmptySender)
		}
		senders[i] = k
	}
	return senders, nil
}
