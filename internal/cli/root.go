package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/pinbatch/internal/config"
	"github.com/rshade/pinbatch/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

type configKey struct{}

// contextWithConfig attaches the loaded configuration to ctx.
func contextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFromContext returns the configuration loaded by the root command,
// or the defaults when none was attached.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.Default()
}

// NewRootCmd creates the root Cobra command for the pinbatch CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithArgs(ver, os.LookupEnv)
}

// NewRootCmdWithArgs creates the root command with an explicit env lookup for testability.
func NewRootCmdWithArgs(ver string, lookupEnv config.LookupEnv) *cobra.Command {
	var (
		logResult  *logging.LogPathResult
		configPath string
	)

	cmd := &cobra.Command{
		Use:     "pinbatch",
		Short:   "Batch operations for Pinterest pins and boards",
		Long:    "pinbatch: run get, update and delete operations over many pins or boards with bounded concurrency, retries and progress reporting",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Arguments parsed; runtime failures should not print usage.
			cmd.SilenceUsage = true

			cfg, err := config.Load(configPath, lookupEnv)
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(contextWithConfig(ctx, cfg))

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the config file (default ~/.pinbatch/config.yaml, or $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(newPinCmd(), newBoardCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Fetch three pins from a fixture store
  pinbatch pin get p1 p2 p3 --fixture store.yaml

  # Retitle pins and persist the change
  pinbatch pin update p1 p2 --title "Weeknight dinners" --fixture store.yaml --save

  # Make boards secret, ten at a time, two in flight
  pinbatch board update b1 b2 b3 --privacy secret --batch-size 10 --concurrency 2 --fixture store.yaml

  # Delete boards and print JSON
  pinbatch board delete b7 b8 --fixture store.yaml --output json

  # Show the effective configuration
  pinbatch config show`

// newPinCmd creates the pin command group.
func newPinCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "pin", Short: "Batch operations on pins"}
	cmd.AddCommand(newPinGetCmd(), newPinUpdateCmd(), newPinDeleteCmd())
	return cmd
}

// newBoardCmd creates the board command group.
func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "board", Short: "Batch operations on boards"}
	cmd.AddCommand(newBoardGetCmd(), newBoardUpdateCmd(), newBoardDeleteCmd())
	return cmd
}

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	cmd.AddCommand(NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}
