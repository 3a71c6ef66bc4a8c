package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/lu-zhengda/topsenders/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limitFlag  int
		senderFlag string
		runFlag    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past bulk mark results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			recs, err := db.ListMutations(cmd.Context(), store.ListMutationOptions{
				RunID:  runFlag,
				Sender: senderFlag,
				Limit:  limitFlag,
			})
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			if jsonFlag {
				return fprintJSON(cmd.OutOrStdout(), toJSONMutations(recs))
			}

			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSENDER\tTARGET\tFOUND\tMARKED\tFAILED\tRUN")
			for _, r := range recs {
				sender := r.Sender
				if len(sender) > 40 {
					sender = sender[:37] + "..."
				}
				failed := fmt.Sprint(r.Failed)
				if r.Error != "" {
					failed = "error"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.At.Local().Format("Jan 2 15:04"),
					sender, r.Target, r.Found, r.Mutated, failed,
					shortID(r.RunID),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 25, "max records to show")
	cmd.Flags().StringVar(&senderFlag, "sender", "", "only show this sender")
	cmd.Flags().StringVar(&runFlag, "run", "", "only show this run ID")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

