package command

import (
	"context"
	"followtrack/internal"
	"followtrack/internal/di"
	"followtrack/internal/structures"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const AppName = "followtrack"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

var (
	initApp = di.InitApp
	initCli = di.InitCli
)

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "FollowTrack - GitHub follower change tracker",
		Long:          "FollowTrack fetches the followers of a GitHub account, reports who followed and unfollowed since the last run and keeps a one-week count history.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringP("config", "c", "config.yml", "path to the config file")
	cmd.PersistentFlags().Bool("debug", false, "log debug output to the console")

	cmd.AddCommand(
		NewServeCmd(),
		NewRefreshCmd(),
		NewHistoryCmd(),
		NewLoginCmd(),
		NewLogoutCmd(),
		NewExportCmd(),
		NewImportCmd(),
	)

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(Version).ExecuteContext(ctx)
}

func cliFlags(cmd *cobra.Command) *structures.CliFlags {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return &structures.CliFlags{ConfigPath: configPath, DebugMode: debug}
}

// withCli builds the command dependencies, runs fn and releases them.
func withCli(cmd *cobra.Command, fn func(cli *internal.Cli) error) error {
	cli, err := initCli(cliFlags(cmd))
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer cli.Close()

	if err := fn(cli); err != nil {
		return writeCommandError(cmd, err)
	}
	return nil
}
