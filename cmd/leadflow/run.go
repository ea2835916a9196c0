package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/leadflow/internal/cli"
)

func newRunCmd(a *app) *cobra.Command {
	opts := cli.RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the wizard in the terminal",
		Long: `Runs one wizard session on stdin/stdout.

With --session the session is saved after every command and resumed on the
next run. --json switches to newline-delimited JSON for scripted clients.
--watch reloads the flow file on change and keeps the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.In = cmd.InOrStdin()
			opts.Out = cmd.OutOrStdout()
			return cli.Execute(cmd.Context(), a.cfg, a.logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SessionID, "session", "s", "", "Session ID to create or resume")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Exchange views and commands as JSON lines")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Reload the flow file on change")
	cmd.Flags().BoolVar(&opts.Fresh, "fresh", false, "Discard the stored session before starting")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Hide the banner and system messages")
	return cmd
}
