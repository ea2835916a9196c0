package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/internal/config"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":   "log_level",
	"log-format":  "log_format",
	"flow":        "flow",
	"jump-policy": "jump_policy",
	"store":       "store.backend",
	"store-dir":   "store.dir",
	"redis-addr":  "store.redis.addr",
	"otp-hooks":   "otp.hooks",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "leadflow",
		Short: "Leadflow is a lead capture wizard engine",
		Long: `Leadflow runs a step-by-step lead capture wizard: a name, mobile and OTP
gate followed by question steps. Sessions can run in the terminal, over
HTTP or as MCP tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			envFile, _ := cmd.Flags().GetString("env-file")

			loader := config.NewLoader(config.WithConfigFile(configFile), config.WithEnvFile(envFile))
			for name, key := range flagKeys {
				if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}

			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			logger, err := cli.NewLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if used := loader.ConfigFileUsed(); used != "" {
				logger.Debug("Config loaded", "file", used)
			}

			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default leadflow.yaml in . or the user config dir)")
	pf.String("env-file", ".env", "Env file loaded before reading LEADFLOW_* variables")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("flow", "", "Flow definition file (default: built-in home loan flow)")
	pf.String("jump-policy", "visited", "Indicator jumps: visited or free")
	pf.String("store", config.BackendMemory, "Session store: memory, file or redis")
	pf.String("store-dir", ".leadflow/sessions", "Directory of the file store")
	pf.String("redis-addr", "localhost:6379", "Redis address of the redis store")
	pf.String("otp-hooks", "", "File of send/verify commands for OTP delivery (default: stub)")

	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newFlowCmd(a),
		newSessionCmd(a),
		newVersionCmd(),
	)
	return root
}
