package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/leadflow/internal/cli"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persistent sessions",
		Long:  `List, inspect, and remove sessions kept by the configured store.`,
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List all stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := cli.NewBackend(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			sessions, err := backend.Sessions.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No active sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Active Sessions:")
			for _, s := range sessions {
				fmt.Fprintln(out, "- "+s)
			}
			return nil
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Inspect the state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadSession(cmd, a, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm [session-id...]",
		Short: "Remove one or more sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if len(args) == 0 && !all {
				return fmt.Errorf("give at least one session ID or --all")
			}

			backend, err := cli.NewBackend(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			ids := args
			if all {
				if ids, err = backend.Sessions.List(cmd.Context()); err != nil {
					return fmt.Errorf("error listing sessions: %w", err)
				}
			}

			var failed int
			for _, id := range ids {
				if err := backend.Sessions.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d session(s) could not be removed", failed)
			}
			return nil
		},
	}
	rm.Flags().Bool("all", false, "Remove every stored session")

	cmd.AddCommand(ls, inspect, rm)
	return cmd
}
