package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your play statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			stats, err := client.Statistics(cmd.Context(), period)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "matches played:  %d\n", stats.MatchesPlayed)
			fmt.Fprintf(out, "correct answers: %d\n", stats.CorrectAnswers)
			fmt.Fprintf(out, "total score:     %d\n", stats.TotalScore)
			fmt.Fprintf(out, "average score:   %.1f\n", stats.AverageScore)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "filter period (week, month, all)")
	return cmd
}
