package command

import (
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(cliFlags(cmd))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := app.Run(); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
}
