package batch

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Operation is applied to every item of a batch.
type Operation[T, R any] interface {
	Invoke(ctx context.Context, item T) (R, error)
}

// OperationFunc adapts a plain function to the Operation interface.
type OperationFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Invoke calls f(ctx, item).
func (f OperationFunc[T, R]) Invoke(ctx context.Context, item T) (R, error) {
	return f(ctx, item)
}

// PanicError carries the value recovered from a panicking operation, unchanged.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "operation panicked: " + err.Error()
	}
	return fmt.Sprintf("operation panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Retrier is the per-item retry policy.
type Retrier struct {
	// Attempts is the total number of invocations allowed. Values <= 0 mean 1.
	Attempts int

	// Delay is the pause before the second attempt. Negative means none.
	Delay time.Duration

	// Multiplier grows the delay per attempt when > 1.
	Multiplier float64

	// MaxDelay caps the grown delay (0 = no cap).
	MaxDelay time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the settled state of one item after Execute.
type Outcome[R any] struct {
	Value   R
	Err     error
	Attempt int
}

// attemptState is the bookkeeping of one item across attempts.
type attemptState struct {
	attempt int
	lastErr error
}

// Execute invokes op for item until it succeeds or the attempts are exhausted.
// A failed outcome carries the last error and the number of attempts made.
// If ctx is done while waiting between attempts, the item fails with the ctx error.
func Execute[T, R any](ctx context.Context, r Retrier, item T, op Operation[T, R]) Outcome[R] {
	maxAttempts := max(r.Attempts, 1)
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var state attemptState
	for {
		state.attempt++
		value, err := invokeSafely(ctx, op, item)
		if err == nil {
			return Outcome[R]{Value: value, Attempt: state.attempt}
		}
		state.lastErr = err

		if state.attempt >= maxAttempts {
			break
		}
		if sleepErr := sleep(ctx, r.delayFor(state.attempt)); sleepErr != nil {
			state.lastErr = sleepErr
			break
		}
	}

	var zero R
	return Outcome[R]{Value: zero, Err: state.lastErr, Attempt: state.attempt}
}

// delayFor returns the pause after the given failed attempt (1-based).
func (r Retrier) delayFor(attempt int) time.Duration {
	if r.Delay <= 0 {
		return 0
	}
	if r.Multiplier <= 1 || attempt <= 1 {
		return r.capDelay(r.Delay)
	}

	grown := float64(r.Delay) * math.Pow(r.Multiplier, float64(attempt-1))
	if grown > math.MaxInt64 {
		grown = math.MaxInt64
	}
	return r.capDelay(time.Duration(grown))
}

func (r Retrier) capDelay(d time.Duration) time.Duration {
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// invokeSafely calls op, converting a panic into a *PanicError.
func invokeSafely[T, R any](ctx context.Context, op Operation[T, R], item T) (value R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero R
			value = zero
			err = &PanicError{Value: recovered}
		}
	}()
	return op.Invoke(ctx, item)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
