package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/pinbatch/internal/config"
	"github.com/rshade/pinbatch/internal/engine/batch"
)

// ErrFixtureRequired is returned when a batch command has no --fixture store.
var ErrFixtureRequired = errors.New("--fixture is required")

// BatchFlags holds the flags shared by every pin and board subcommand.
type BatchFlags struct {
	Fixture     string
	Save        bool
	Output      string
	BatchSize   int
	Concurrency int
	Retries     int
	RetryDelay  time.Duration
	NoDedup     bool
}

// register adds the shared flags to cmd.
func (f *BatchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Fixture, "fixture", "", "YAML store of pins and boards to operate on (required)")
	cmd.Flags().BoolVar(&f.Save, "save", false, "write the store back to --fixture after the run")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output format: table or json (default from config)")
	cmd.Flags().IntVar(&f.BatchSize, "batch-size", 0,
		fmt.Sprintf("items per batch, %d-%d (default from config)", batch.MinBatchSize, batch.MaxBatchSize))
	cmd.Flags().IntVar(&f.Concurrency, "concurrency", 0,
		fmt.Sprintf("operations in flight per batch, 1-%d (default from config)", batch.MaxConcurrency))
	cmd.Flags().IntVar(&f.Retries, "retries", 0, "total attempts per item (default from config)")
	cmd.Flags().DurationVar(&f.RetryDelay, "retry-delay", 0, "pause between attempts, 0 retries immediately")
	cmd.Flags().BoolVar(&f.NoDedup, "no-dedup", false, "process duplicate ids instead of removing them")
}

// resolve applies explicitly set flags over cfg and validates the result.
// cfg is not modified.
func (f *BatchFlags) resolve(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	if f.Fixture == "" {
		return nil, ErrFixtureRequired
	}

	merged := *cfg
	flags := cmd.Flags()
	if flags.Changed("output") {
		merged.Output.Format = f.Output
	}
	if flags.Changed("batch-size") {
		merged.Batch.MaxBatchSize = f.BatchSize
	}
	if flags.Changed("concurrency") {
		merged.Batch.MaxConcurrency = f.Concurrency
	}
	if flags.Changed("retries") {
		merged.Batch.RetryAttempts = f.Retries
	}
	if flags.Changed("retry-delay") {
		merged.Batch.RetryDelay = f.RetryDelay
	}
	if f.NoDedup {
		merged.Batch.EnableOptimization = false
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
