package batch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/pinbatch/internal/logging"
)

// ErrNilOperation is returned when Process is called without an operation.
var ErrNilOperation = errors.New("batch operation cannot be nil")

// Processor applies an operation to items in batches.
// It holds no per-run state, so one Processor can serve concurrent Process calls.
type Processor[T comparable, R any] struct {
	opts Options
}

// NewProcessor creates a processor from opts, filling unset values with defaults.
func NewProcessor[T comparable, R any](opts Options) (*Processor[T, R], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Processor[T, R]{
		opts: opts.WithDefaults(),
	}, nil
}

// NewProcessorWithDefaults creates a processor with the default options.
func NewProcessorWithDefaults[T comparable, R any]() *Processor[T, R] {
	return &Processor[T, R]{
		opts: Options{}.WithDefaults(),
	}
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T, R]) WithProgressCallback(callback ProgressCallback) *Processor[T, R] {
	p.opts.ProgressCallback = callback
	return p
}

// Options returns the effective options.
func (p *Processor[T, R]) Options() Options {
	return p.opts
}

// itemOutcome is the settled state of one item slot within a batch.
type itemOutcome[R any] struct {
	Outcome[R]

	ran bool
}

// Process runs op over items and aggregates every item's outcome.
//
// Duplicates are removed first when optimization is enabled. Batches run in
// input order; within a batch at most MaxConcurrency items are in flight and
// their completion order is unspecified. Item failures never abort the run:
// they are returned in Result.Errors after the retry policy is exhausted.
//
// Process fails only on cancellation. token (which may be nil) and ctx are
// checked before every batch, before every queued item starts and after the
// last batch. On cancellation the returned error is a *CancelledError and all
// results computed so far are discarded.
func (p *Processor[T, R]) Process(
	ctx context.Context,
	items []T,
	op Operation[T, R],
	token *CancellationToken,
) (*Result[T, R], error) {
	if op == nil {
		return nil, ErrNilOperation
	}

	log := logging.FromContext(ctx)
	unique, removed := Deduplicate(items, p.opts.OptimizationEnabled())
	batches := Chunk(unique, p.opts.MaxBatchSize)
	tracker := NewTracker(len(unique), len(batches), p.opts.ProgressCallback)
	retrier := p.opts.retrier()

	log.Debug().
		Ctx(ctx).
		Str("component", "batch").
		Int("items", len(items)).
		Int("unique_items", len(unique)).
		Int("duplicates_removed", removed).
		Int("total_batches", len(batches)).
		Int("max_concurrency", p.opts.MaxConcurrency).
		Msg("starting batch run")

	result := &Result[T, R]{
		Succeeded:     make([]ItemSuccess[T, R], 0, len(unique)),
		Errors:        make([]ItemError[T], 0),
		Optimizations: Optimizations{DuplicatesRemoved: removed},
	}

	for batchIndex, batch := range batches {
		if err := checkCancelled(ctx, token); err != nil {
			log.Info().
				Ctx(ctx).
				Str("component", "batch").
				Int("batch", batchIndex+1).
				Err(err).
				Msg("batch run cancelled")
			return nil, err
		}

		tracker.StartBatch(batchIndex + 1)
		start := time.Now()
		outcomes := p.runBatch(ctx, batch, op, retrier, tracker, token)

		failed := 0
		for i, out := range outcomes {
			if !out.ran {
				continue
			}
			if out.Err != nil {
				failed++
				result.Errors = append(result.Errors, ItemError[T]{
					Item:    batch[i],
					Err:     out.Err,
					Attempt: out.Attempt,
				})
				continue
			}
			result.Succeeded = append(result.Succeeded, ItemSuccess[T, R]{
				Item:  batch[i],
				Value: out.Value,
			})
		}

		log.Debug().
			Ctx(ctx).
			Str("component", "batch").
			Int("batch", batchIndex+1).
			Int("size", len(batch)).
			Int("failed", failed).
			Dur("duration_ms", time.Since(start)).
			Msg("batch finished")
	}

	if err := checkCancelled(ctx, token); err != nil {
		log.Info().
			Ctx(ctx).
			Str("component", "batch").
			Err(err).
			Msg("batch run cancelled after last batch")
		return nil, err
	}

	result.Progress = tracker.Snapshot()

	log.Debug().
		Ctx(ctx).
		Str("component", "batch").
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Errors)).
		Dur("elapsed_ms", result.Progress.Elapsed).
		Msg("batch run finished")

	return result, nil
}

// runBatch fans items out under the concurrency limit and waits for all of them.
// Outcomes are stored by item index; slots of items skipped on cancellation keep ran=false.
func (p *Processor[T, R]) runBatch(
	ctx context.Context,
	batch []T,
	op Operation[T, R],
	retrier Retrier,
	tracker *Tracker,
	token *CancellationToken,
) []itemOutcome[R] {
	outcomes := make([]itemOutcome[R], len(batch))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrency)

	for i, item := range batch {
		g.Go(func() error {
			if checkCancelled(ctx, token) != nil {
				return nil
			}

			out := Execute(ctx, retrier, item, op)
			outcomes[i] = itemOutcome[R]{Outcome: out, ran: true}
			if out.Err != nil {
				tracker.RecordFailure()
			} else {
				tracker.RecordSuccess()
			}
			// Item failures are recorded, never propagated to siblings.
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// checkCancelled returns a *CancelledError if token or ctx has been cancelled.
func checkCancelled(ctx context.Context, token *CancellationToken) error {
	if err := token.Err(); err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &CancelledError{Reason: ctxErr.Error(), Cause: ctxErr}
	}
	return nil
}
