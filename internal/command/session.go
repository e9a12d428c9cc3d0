package command

import (
	"fmt"
	"followtrack/internal"

	"github.com/spf13/cobra"
)

func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <user>",
		Short: "Remember a user and an optional token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")

			return withCli(cmd, func(cli *internal.Cli) error {
				sess, err := cli.Service.Login(cmd.Context(), args[0], token)
				if err != nil {
					return err
				}
				if sess.HasToken() {
					fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s with a token\n", sess.Username)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.Username)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("token", "", "GitHub token to remember")
	return cmd
}

func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered user and token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd, func(cli *internal.Cli) error {
				if err := cli.Service.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}
