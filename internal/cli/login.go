package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizmon-client/internal/rest"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
		email    string
		register bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in (or register) and store the auth token locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			client := rest.NewClient(cfg.Server.APIURL, "", opts.logger())

			var creds rest.Credentials
			if register {
				creds, err = client.Register(cmd.Context(), username, email, password)
			} else {
				creds, err = client.Login(cmd.Context(), username, password)
			}
			if err != nil {
				return err
			}

			if err := saveAuth(cfg, authState{Token: creds.Token, User: creds.User}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", creds.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&email, "email", "", "email (register only)")
	cmd.Flags().BoolVar(&register, "register", false, "create a new account")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}
