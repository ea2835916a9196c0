package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/pkg/adapters/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes wizard sessions as MCP tools so agents can drive a lead capture.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("transport") {
				a.cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.MCP.Addr, _ = cmd.Flags().GetString("addr")
			}

			wizard, err := cli.NewWizard(a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			backend, err := cli.NewBackend(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			srv := mcp.NewServer(wizard, backend.Sessions, mcp.WithLogger(a.logger))

			switch a.cfg.MCP.Transport {
			case "stdio":
				a.logger.Info("Starting leadflow MCP server (stdio)")
				return srv.ServeStdio()
			case "sse":
				err := srv.ServeSSE(cmd.Context(), a.cfg.MCP.Addr, a.cfg.MCP.BaseURL)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				a.logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return errors.New("unknown transport " + a.cfg.MCP.Transport + ", supported: stdio, sse")
			}
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	return cmd
}
