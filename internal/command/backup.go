package command

import (
	"fmt"
	"followtrack/internal"

	"github.com/spf13/cobra"
)

func NewExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every snapshot and history to a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd, func(cli *internal.Cli) error {
				n, err := cli.Backup.Export(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d accounts to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore snapshots and history from a backup file",
		Long:  "Restore snapshots and history from a backup file. Accounts in the file replace the stored ones; other accounts are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd, func(cli *internal.Cli) error {
				n, err := cli.Backup.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts from %s\n", n, args[0])
				return nil
			})
		},
	}
}
