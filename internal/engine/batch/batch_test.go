package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo returns the item unchanged and counts invocations.
func echo(calls *int32) Operation[string, string] {
	return OperationFunc[string, string](func(_ context.Context, item string) (string, error) {
		atomic.AddInt32(calls, 1)
		return item, nil
	})
}

func immediate(opts Options) Options {
	opts.RetryDelay = -1
	return opts
}

func TestProcessor_Process(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = fmt.Sprintf("item-%02d", i)
	}

	t.Run("AllSucceed", func(t *testing.T) {
		p, err := NewProcessor[string, string](Options{MaxBatchSize: 10})
		require.NoError(t, err)

		var calls int32
		result, err := p.Process(context.Background(), items, echo(&calls), nil)
		require.NoError(t, err)

		assert.Equal(t, int32(25), calls)
		assert.Equal(t, items, result.Values(), "successes follow input order")
		assert.Empty(t, result.Errors)
		assert.Equal(t, 3, result.Progress.TotalBatches)
		assert.Equal(t, 25, result.Progress.Completed)
		assert.Equal(t, 100, result.Progress.Percentage)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		p := NewProcessorWithDefaults[string, string]()
		var calls int32
		var callbacks int32
		p.WithProgressCallback(func(Progress) { atomic.AddInt32(&callbacks, 1) })

		result, err := p.Process(context.Background(), nil, echo(&calls), nil)
		require.NoError(t, err)
		assert.Empty(t, result.Succeeded)
		assert.Empty(t, result.Errors)
		assert.Equal(t, int32(0), calls)
		assert.Equal(t, int32(0), callbacks)
		assert.Equal(t, 0, result.Progress.TotalBatches)
	})

	t.Run("NilOperation", func(t *testing.T) {
		p := NewProcessorWithDefaults[string, string]()
		_, err := p.Process(context.Background(), items, nil, nil)
		assert.ErrorIs(t, err, ErrNilOperation)
	})

	t.Run("Deduplication", func(t *testing.T) {
		p := NewProcessorWithDefaults[string, string]()
		var calls int32

		result, err := p.Process(context.Background(), []string{"a", "a", "b"}, echo(&calls), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Optimizations.DuplicatesRemoved)
		assert.Equal(t, int32(2), calls)
		assert.Equal(t, []string{"a", "b"}, result.Values())
	})

	t.Run("DeduplicationDisabled", func(t *testing.T) {
		p, err := NewProcessor[string, string](Options{EnableOptimization: Bool(false)})
		require.NoError(t, err)
		var calls int32

		result, err := p.Process(context.Background(), []string{"a", "a", "b"}, echo(&calls), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Optimizations.DuplicatesRemoved)
		assert.Equal(t, int32(3), calls)
		assert.Len(t, result.Succeeded, 3)
	})

	t.Run("PartialFailure", func(t *testing.T) {
		p, err := NewProcessor[int, int](immediate(Options{RetryAttempts: 1, MaxBatchSize: 4}))
		require.NoError(t, err)

		op := OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
			if item%3 == 0 {
				return 0, fmt.Errorf("item %d rejected", item)
			}
			return item * 2, nil
		})

		input := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		result, err := p.Process(context.Background(), input, op, nil)
		require.NoError(t, err)

		assert.Equal(t, []int{2, 4, 8, 10, 14, 16, 20}, result.Values())
		require.Len(t, result.Errors, 3)
		assert.Equal(t, 3, result.Errors[0].Item)
		assert.Equal(t, 6, result.Errors[1].Item)
		assert.Equal(t, 9, result.Errors[2].Item)
		assert.EqualError(t, result.Errors[0].Err, "item 3 rejected")
		assert.Equal(t, 1, result.Errors[0].Attempt)
		assert.Equal(t, len(input), len(result.Succeeded)+len(result.Errors))
		assert.True(t, result.HasErrors())
		assert.ErrorContains(t, result.Err(), "item 9 rejected")
	})
}

func TestProcessor_ConcurrencyLimit(t *testing.T) {
	p, err := NewProcessor[int, int](Options{MaxConcurrency: 3})
	require.NoError(t, err)

	var inFlight, peak int32
	op := OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return item, nil
	})

	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	result, err := p.Process(context.Background(), items, op, nil)
	require.NoError(t, err)

	assert.Len(t, result.Succeeded, 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Positive(t, atomic.LoadInt32(&peak))
}

func TestProcessor_BatchesRunInOrder(t *testing.T) {
	p, err := NewProcessor[int, int](Options{MaxBatchSize: 3, MaxConcurrency: 3})
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int

	p.WithProgressCallback(func(progress Progress) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, progress.CurrentBatch)
	})

	var calls int32
	op := OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return item, nil
	})

	_, err = p.Process(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7}, op, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(8), atomic.LoadInt32(&calls))
	require.Len(t, seen, 8)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "batch index never goes backwards")
	}
	assert.Equal(t, 3, seen[len(seen)-1])
}

func TestProcessor_Retry(t *testing.T) {
	t.Run("ExhaustsAttempts", func(t *testing.T) {
		p, err := NewProcessor[string, string](Options{RetryAttempts: 2, RetryDelay: time.Millisecond})
		require.NoError(t, err)

		var calls int32
		op := OperationFunc[string, string](func(context.Context, string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "", errors.New("always fails")
		})

		result, err := p.Process(context.Background(), []string{"only"}, op, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].Attempt)
		assert.Equal(t, "only", result.Errors[0].Item)
		assert.EqualError(t, result.Errors[0].Err, "always fails")
	})

	t.Run("RecoversOnLaterAttempt", func(t *testing.T) {
		p, err := NewProcessor[string, string](immediate(Options{RetryAttempts: 3}))
		require.NoError(t, err)

		var calls int32
		op := OperationFunc[string, string](func(_ context.Context, item string) (string, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return "", errors.New("flaky")
			}
			return item + "!", nil
		})

		result, err := p.Process(context.Background(), []string{"x"}, op, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x!"}, result.Values())
		assert.Empty(t, result.Errors)
		assert.Equal(t, int32(3), calls)
	})

	t.Run("ZeroValueIsSuccess", func(t *testing.T) {
		p := NewProcessorWithDefaults[string, *int]()
		op := OperationFunc[string, *int](func(context.Context, string) (*int, error) {
			return nil, nil
		})

		result, err := p.Process(context.Background(), []string{"x"}, op, nil)
		require.NoError(t, err)
		require.Len(t, result.Succeeded, 1)
		assert.Nil(t, result.Succeeded[0].Value)
	})

	t.Run("PanicValuePreserved", func(t *testing.T) {
		p, err := NewProcessor[string, string](immediate(Options{RetryAttempts: 1}))
		require.NoError(t, err)

		type custom struct{ code int }
		op := OperationFunc[string, string](func(context.Context, string) (string, error) {
			panic(custom{code: 42})
		})

		result, err := p.Process(context.Background(), []string{"x"}, op, nil)
		require.NoError(t, err)
		require.Len(t, result.Errors, 1)

		var panicErr *PanicError
		require.ErrorAs(t, result.Errors[0].Err, &panicErr)
		assert.Equal(t, custom{code: 42}, panicErr.Value)
	})
}

func TestProcessor_Cancellation(t *testing.T) {
	slow := func(calls *int32) Operation[int, int] {
		return OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
			atomic.AddInt32(calls, 1)
			time.Sleep(100 * time.Millisecond)
			return item, nil
		})
	}
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	t.Run("TokenMidRun", func(t *testing.T) {
		p := NewProcessorWithDefaults[int, int]()
		token := NewCancellationToken()
		time.AfterFunc(50*time.Millisecond, func() { token.Cancel("user requested") })

		var calls int32
		result, err := p.Process(context.Background(), items, slow(&calls), token)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.EqualError(t, err, "Operation cancelled: user requested")
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Less(t, atomic.LoadInt32(&calls), int32(len(items)), "queued items never start")
	})

	t.Run("TokenBetweenBatches", func(t *testing.T) {
		p, err := NewProcessor[int, int](Options{MaxBatchSize: 2})
		require.NoError(t, err)
		token := NewCancellationToken()

		var calls int32
		op := OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
			if atomic.AddInt32(&calls, 1) == 2 {
				token.Cancel("enough")
			}
			return item, nil
		})

		_, err = p.Process(context.Background(), items, op, token)
		require.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "no batch starts after cancel")
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		p := NewProcessorWithDefaults[int, int]()
		token := NewCancellationToken()
		token.Cancel("before start")

		var calls int32
		_, err := p.Process(context.Background(), items, slow(&calls), token)
		assert.EqualError(t, err, "Operation cancelled: before start")
		assert.Equal(t, int32(0), calls)
	})

	t.Run("Context", func(t *testing.T) {
		p := NewProcessorWithDefaults[int, int]()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls int32
		_, err := p.Process(ctx, items, slow(&calls), nil)
		require.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), calls)
	})
}

func TestProcessor_ProgressCallback(t *testing.T) {
	p, err := NewProcessor[int, int](immediate(Options{MaxBatchSize: 3, RetryAttempts: 1}))
	require.NoError(t, err)

	var mu sync.Mutex
	var updates []Progress
	p.WithProgressCallback(func(progress Progress) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, progress)
	})

	op := OperationFunc[int, int](func(_ context.Context, item int) (int, error) {
		if item == 4 {
			return 0, errors.New("bad item")
		}
		return item, nil
	})

	result, err := p.Process(context.Background(), []int{1, 2, 3, 4, 5, 6, 7}, op, nil)
	require.NoError(t, err)

	require.Len(t, updates, 7)
	for i, u := range updates {
		assert.Equal(t, i+1, u.Settled(), "one update per settled item")
		assert.Equal(t, 7, u.Total)
		assert.Equal(t, 3, u.TotalBatches)
	}

	last := updates[len(updates)-1]
	assert.Equal(t, 100, last.Percentage)
	assert.Equal(t, last.Total, last.Completed+last.Failed)
	assert.Equal(t, 1, last.Failed)
	assert.Zero(t, last.EstimatedTimeRemaining)
	assert.Equal(t, last.Completed, result.Progress.Completed)
	assert.Equal(t, 6, updates[0].Pending())
}

func TestNewProcessor_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "batch size too large", opts: Options{MaxBatchSize: MaxBatchSize + 1}},
		{name: "negative batch size", opts: Options{MaxBatchSize: -1}},
		{name: "concurrency too large", opts: Options{MaxConcurrency: MaxConcurrency + 1}},
		{name: "negative attempts", opts: Options{RetryAttempts: -1}},
		{name: "negative max delay", opts: Options{MaxRetryDelay: -time.Second}},
		{name: "negative multiplier", opts: Options{BackoffMultiplier: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProcessor[int, int](tt.opts)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, DefaultBatchSize, opts.MaxBatchSize)
	assert.Equal(t, DefaultConcurrency, opts.MaxConcurrency)
	assert.Equal(t, DefaultRetryAttempts, opts.RetryAttempts)
	assert.Equal(t, DefaultRetryDelay, opts.RetryDelay)
	assert.True(t, opts.OptimizationEnabled())

	custom := Options{MaxBatchSize: 4, EnableOptimization: Bool(false)}.WithDefaults()
	assert.Equal(t, 4, custom.MaxBatchSize)
	assert.False(t, custom.OptimizationEnabled())
}
