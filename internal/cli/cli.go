package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/specialistvlad/deploygrid/internal/app"
	"github.com/specialistvlad/deploygrid/internal/executor"
)

// Version is set at build time.
var Version = "dev"

// EnvPrefix prefixes the environment variables read for flags.
const EnvPrefix = "DEPLOYGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// NewRootCommand returns the deploygrid command tree. Reports are written to
// outW, logs and errors to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "deploygrid",
		Short: "Deploy interdependent smart contracts in dependency order",
		Long: `deploygrid deploys the units declared in HCL grid files to an EVM network.

Units may reference the addresses of other units in their constructor
arguments. deploygrid orders the units so every unit is deployed after the
units it references, deploys each exactly once and stops at the first failure.

Configuration (in order of priority):
  1. Command-line flags
  2. Environment variables (DEPLOYGRID_NETWORK, DEPLOYGRID_STATE_DB, ...)
  3. Config file (--config)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%s", err)
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, toml or json)")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		newDeployCommand(outW, errW),
		newPlanCommand(outW, errW),
		newHistoryCommand(outW, errW),
		newVersionCommand(outW),
	)
	return root
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError("%s", err)
		}
		return nil
	}
}

// newViper returns a viper instance bound to the flags of cmd, the
// DEPLOYGRID_ environment and the --config file when set.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if err := bindFlags(v, cmd.Flags(), cmd.InheritedFlags()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func bindFlags(v *viper.Viper, sets ...*pflag.FlagSet) error {
	for _, fs := range sets {
		if err := v.BindPFlags(fs); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}
	return nil
}

// gridPath picks --grid, then the positional argument.
func gridPath(v *viper.Viper, args []string) string {
	if p := v.GetString("grid"); p != "" {
		return p
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func addGridFlags(fs *pflag.FlagSet) {
	fs.StringP("grid", "g", "", "Path to the grid file or directory.")
	fs.String("env-file", ".env", "Dotenv file merged into the env object. A missing file is ignored.")
	fs.Bool("json", false, "Output in JSON format.")
}

func newConfig(v *viper.Viper, args []string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		GridPath:        gridPath(v, args),
		Network:         v.GetString("network"),
		ArtifactsPath:   v.GetString("artifacts"),
		EnvFile:         v.GetString("env-file"),
		StateDB:         v.GetString("state-db"),
		ReportPath:      v.GetString("report"),
		JSON:            v.GetBool("json"),
		LogFormat:       v.GetString("log-format"),
		LogLevel:        v.GetString("log-level"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		Workers:         v.GetInt("workers"),
		Timeout:         v.GetDuration("timeout"),
	})
	if err != nil {
		return nil, usageError("%s", err)
	}
	return cfg, nil
}

func newDeployCommand(outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [GRID_PATH]",
		Short: "Deploy every unit of a grid",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := newConfig(v, args)
			if err != nil {
				return err
			}
			if cfg.GridPath == "" {
				return usageError("a grid path is required (GRID_PATH or --grid)")
			}
			_, err = app.NewApp(outW, errW, cfg).Deploy(cmd.Context())
			return err
		},
	}
	fs := cmd.Flags()
	addGridFlags(fs)
	fs.StringP("network", "n", "", "Network block to deploy to. Optional when the grid declares one.")
	fs.String("artifacts", "artifacts", "Directory of compiled contract artifacts (Hardhat or Foundry).")
	fs.Duration("timeout", executor.DefaultTimeout, "Timeout for a single unit deployment.")
	fs.Int("workers", 1, "Units deployed concurrently within a wave. 1 deploys sequentially.")
	fs.String("state-db", "", "SQLite file recording runs. Empty disables persistence.")
	fs.String("report", "", "Write a JSON report of the run to this file.")
	fs.Int("healthcheck-port", 0, "Port for the /healthz and /metrics server. 0 is disabled.")
	return cmd
}

func newPlanCommand(outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [GRID_PATH]",
		Short: "Print the deployment order without touching the network",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := newConfig(v, args)
			if err != nil {
				return err
			}
			if cfg.GridPath == "" {
				return usageError("a grid path is required (GRID_PATH or --grid)")
			}
			_, err = app.NewApp(outW, errW, cfg).Plan(cmd.Context())
			return err
		},
	}
	addGridFlags(cmd.Flags())
	return cmd
}

func newHistoryCommand(outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded runs, or the deployments of one run",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := newConfig(v, nil)
			if err != nil {
				return err
			}
			if cfg.StateDB == "" {
				return usageError("history requires --state-db")
			}
			var runID string
			if len(args) > 0 {
				runID = args[0]
			}
			return app.NewApp(outW, errW, cfg).History(cmd.Context(), runID)
		},
	}
	fs := cmd.Flags()
	fs.String("state-db", "", "SQLite file recording runs.")
	fs.Bool("json", false, "Output in JSON format.")
	return cmd
}

func newVersionCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  maxArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(outW, "deploygrid version %s\n", Version)
		},
	}
}

// ExitCode maps an error returned by the command tree to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
