package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/pinbatch/internal/engine/batch"
	"github.com/rshade/pinbatch/internal/pinterest"
)

// batchCall runs one engine call for the ids.
type batchCall[R any] func(
	ctx context.Context,
	engine *pinterest.Engine,
	ids []string,
	opts ...pinterest.CallOption,
) (*batch.Result[string, R], error)

// batchRun is everything a pin or board subcommand needs to execute.
type batchRun[R any] struct {
	resource string
	op       pinterest.Operation
	flags    *BatchFlags
	call     batchCall[R]
	layout   table[R]
}

// runBatch loads the fixture store, runs the call with progress reporting and
// Ctrl+C cancellation, prints the result and optionally saves the store.
func runBatch[R any](cmd *cobra.Command, ids []string, run batchRun[R]) error {
	ctx := cmd.Context()

	cfg, err := run.flags.resolve(cmd, configFromContext(ctx))
	if err != nil {
		return err
	}

	client, err := pinterest.LoadFixture(run.flags.Fixture)
	if err != nil {
		return err
	}

	engine, err := pinterest.NewEngine(client, cfg.Batch.ToOptions())
	if err != nil {
		return err
	}

	token := batch.NewCancellationToken()
	stop := cancelOnInterrupt(ctx, token)
	defer stop()

	reporter := newProgressReporter(cmd.ErrOrStderr())

	logger.Info().Ctx(ctx).
		Str("resource", run.resource).
		Str("operation", string(run.op)).
		Int("ids", len(ids)).
		Msg("starting batch run")

	result, err := run.call(ctx, engine, ids,
		pinterest.WithCancellation(token),
		pinterest.WithProgress(reporter.Update),
	)
	reporter.Finish()
	if err != nil {
		return err
	}

	if run.flags.Save && run.op != pinterest.OperationGet {
		if err = client.Save(run.flags.Fixture); err != nil {
			return err
		}
		logger.Info().Ctx(ctx).Str("path", run.flags.Fixture).Msg("fixture saved")
	}

	if err = renderResult(cmd.OutOrStdout(), cfg.Output.Format, run.resource, run.op, result, run.layout); err != nil {
		return err
	}

	if result.HasErrors() {
		logger.Warn().Ctx(ctx).Err(result.Err()).Msg("batch run finished with item errors")
		printer := message.NewPrinter(language.English)
		return &ExitError{
			Code:   ExitCodeItemErrors,
			Reason: printer.Sprintf("%d of %d %s(s) failed", len(result.Errors), result.Progress.Total, run.resource),
		}
	}
	return nil
}

// cancelOnInterrupt cancels token with reason "interrupted" on SIGINT or SIGTERM.
// The returned function stops listening.
func cancelOnInterrupt(ctx context.Context, token *batch.CancellationToken) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-signals:
			logger.Warn().Ctx(ctx).Str("signal", sig.String()).Msg("cancelling batch run")
			token.Cancel("interrupted")
		case <-done:
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

// optionalString returns a pointer to the flag value when the flag was set.
func optionalString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// requireIDs is a cobra.PositionalArgs that demands at least one id.
func requireIDs(resource string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("at least one %s id is required", resource)
		}
		return nil
	}
}
