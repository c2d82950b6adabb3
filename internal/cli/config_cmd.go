package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigValidateCmd creates the config validate command.
// Loading and validation happen in the root command, so reaching RunE means
// the configuration is valid.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validates the configuration file (default ~/.pinbatch/config.yaml) together with
PINBATCH_* environment overrides.

This includes:
- YAML syntax and unknown keys
- Batch size (1-1000) and concurrency (1-100) bounds
- Retry attempts, delays and backoff multiplier
- Logging level and format
- Output format`,
		Example: `  # Validate current configuration
  pinbatch config validate

  # Validate a specific file and show the effective values
  pinbatch config validate --config ./pinbatch.yaml --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the effective configuration")

	return cmd
}

// runConfigValidate re-validates the loaded configuration and reports the result.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := configFromContext(cmd.Context())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		opts := cfg.Batch.ToOptions().WithDefaults()
		cmd.Printf("\nBatch size:      %d\n", opts.MaxBatchSize)
		cmd.Printf("Concurrency:     %d\n", opts.MaxConcurrency)
		cmd.Printf("Retry attempts:  %d\n", opts.RetryAttempts)
		cmd.Printf("Retry delay:     %s\n", cfg.Batch.RetryDelay)
		cmd.Printf("Deduplication:   %t\n", opts.OptimizationEnabled())
		cmd.Printf("Log level:       %s\n", cfg.Logging.Level)
		cmd.Printf("Output format:   %s\n", cfg.Output.Format)
	}

	return nil
}

// NewConfigShowCmd creates the config show command.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long:  "Prints the configuration after defaults, the config file and PINBATCH_* environment overrides are merged.",
		Example: `  pinbatch config show
  PINBATCH_CONCURRENCY=8 pinbatch config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := configFromContext(cmd.Context()).Marshal()
			if err != nil {
				return fmt.Errorf("rendering configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
