package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List quiz categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			cats, err := client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}
