package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizmon-client/internal/history"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show matches you finished on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no matches recorded yet")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(out, "%s  #%-3d %6d pts  match %s\n",
					rec.PlayedAt.Format("2006-01-02 15:04"), rec.Rank, rec.Score, rec.MatchID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of matches to show")
	return cmd
}
