package command

import (
	"fmt"
	"followtrack/internal"
	"followtrack/internal/models"

	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <user>",
		Short: "Show the daily follower counts of the last week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			return withCli(cmd, func(cli *internal.Cli) error {
				records, err := cli.Service.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), records)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintf(out, "No history for %s\n", args[0])
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(out, "%s  %d\n", r.Date, r.Count)
				}
				fmt.Fprintf(out, "Weekly change: %+d\n", models.WeeklyChange(records))
				return nil
			})
		},
	}

	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}
