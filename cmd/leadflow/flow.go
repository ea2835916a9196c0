package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/internal/presentation/graph"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
)

func newFlowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Inspect the wizard flow",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active flow as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			wizard, err := cli.NewWizard(a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(wizard.Flow())
		},
	}

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a flow file for consistency",
		Long:  `Parses the flow file (or the configured one) and reports unknown keys, duplicate steps and invalid options.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Flow
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no flow file given")
			}
			def, err := flow.LoadFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flow %q is valid (%d steps)\n", def.Name, len(def.Steps))
			return nil
		},
	}

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the flow as a Mermaid diagram",
		Long:  `Outputs a Mermaid flowchart (graph TD) of the steps. With --session the visited and current steps are highlighted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wizard, err := cli.NewWizard(a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			steps := wizard.Steps()

			var overlay *graph.Overlay
			if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
				state, err := loadSession(cmd, a, sessionID)
				if err != nil {
					return err
				}
				overlay = graph.OverlayFromState(state, steps)
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(steps, overlay))
			return nil
		},
	}
	graphCmd.Flags().String("session", "", "Highlight the progress of this session")

	cmd.AddCommand(show, validate, graphCmd)
	return cmd
}

func loadSession(cmd *cobra.Command, a *app, sessionID string) (*domain.State, error) {
	backend, err := cli.NewBackend(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	state, err := backend.Sessions.Load(cmd.Context(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}
	return state, nil
}
