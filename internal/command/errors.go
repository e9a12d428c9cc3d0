package command

import (
	"errors"
	"fmt"
	"followtrack/internal/github"

	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if errors.Is(err, github.ErrRateLimited) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: pass a token with --token or run: followtrack login <user> --token <token>")
	}

	return err
}
