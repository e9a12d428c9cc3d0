package command

import (
	"fmt"
	"followtrack/internal"
	"followtrack/internal/models"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh <user>",
		Short: "Fetch followers and show who followed or unfollowed",
		Long: `Fetch the current followers of <user>, compare them with the last stored
snapshot and store the new one.

Without --token the token of the logged in user is used when it matches <user>.

Examples:
  followtrack refresh octocat
  followtrack refresh octocat --token ghp_xxx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withCli(cmd, func(cli *internal.Cli) error {
				result, err := cli.Service.Refresh(cmd.Context(), args[0], token)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				printRefresh(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().String("token", "", "GitHub token for this run")
	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}

func printRefresh(out io.Writer, result *models.RefreshResult) {
	diff := result.Diff
	fmt.Fprintf(out, "%s: %d followers\n", result.AccountID, diff.CurrentTotal)

	if result.FirstRun {
		fmt.Fprintln(out, "First run, snapshot saved.")
		return
	}

	fmt.Fprintf(out, "Since %s: %d new, %d lost\n",
		result.PreviousCapturedAt.Local().Format("2006-01-02 15:04"), len(diff.Added), len(diff.Removed))
	for _, f := range diff.Added {
		fmt.Fprintf(out, "  + %s\n", f.Handle)
	}
	for _, f := range diff.Removed {
		fmt.Fprintf(out, "  - %s\n", f.Handle)
	}
	fmt.Fprintf(out, "Weekly change: %+d\n", result.WeeklyChange)
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
