package batch

import (
	"errors"
	"fmt"
	"time"
)

// Default batch processing configuration.
const (
	// DefaultBatchSize is the default number of items per batch.
	DefaultBatchSize = 10

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000

	// DefaultConcurrency is the default number of operations in flight per batch.
	DefaultConcurrency = 5

	// MaxConcurrency is the maximum allowed concurrency.
	MaxConcurrency = 100

	// DefaultRetryAttempts is the default total number of attempts per item.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the default pause between two attempts.
	DefaultRetryDelay = time.Second
)

// ErrInvalidOptions is returned when batch options are outside their allowed range.
var ErrInvalidOptions = errors.New("invalid batch options")

// ProgressCallback is invoked after every item settles.
// It receives a copy of the progress state, never a live reference.
type ProgressCallback func(progress Progress)

// Options configures a Processor. Zero values select the defaults.
type Options struct {
	// MaxBatchSize is the number of items per batch.
	MaxBatchSize int

	// MaxConcurrency bounds the operations in flight within one batch.
	MaxConcurrency int

	// RetryAttempts is the total number of attempts per item, including the first.
	RetryAttempts int

	// RetryDelay is the pause before the second attempt.
	// A negative value retries immediately.
	RetryDelay time.Duration

	// BackoffMultiplier grows the delay for each further attempt.
	// Values <= 1 keep the delay constant.
	BackoffMultiplier float64

	// MaxRetryDelay caps the grown delay (0 = no cap).
	MaxRetryDelay time.Duration

	// EnableOptimization removes duplicate items before dispatch.
	// Nil means enabled.
	EnableOptimization *bool

	// ProgressCallback is an optional callback for progress updates.
	ProgressCallback ProgressCallback
}

// Bool returns a pointer to b, for use with EnableOptimization.
func Bool(b bool) *bool {
	return &b
}

// Validate checks that explicitly set values are within range.
// Zero values are valid because they select defaults.
func (o Options) Validate() error {
	if o.MaxBatchSize != 0 && (o.MaxBatchSize < MinBatchSize || o.MaxBatchSize > MaxBatchSize) {
		return fmt.Errorf("%w: batch size must be between %d and %d, got %d",
			ErrInvalidOptions, MinBatchSize, MaxBatchSize, o.MaxBatchSize)
	}
	if o.MaxConcurrency != 0 && (o.MaxConcurrency < 1 || o.MaxConcurrency > MaxConcurrency) {
		return fmt.Errorf("%w: concurrency must be between 1 and %d, got %d",
			ErrInvalidOptions, MaxConcurrency, o.MaxConcurrency)
	}
	if o.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative, got %d", ErrInvalidOptions, o.RetryAttempts)
	}
	if o.MaxRetryDelay < 0 {
		return fmt.Errorf("%w: max retry delay cannot be negative", ErrInvalidOptions)
	}
	if o.BackoffMultiplier < 0 {
		return fmt.Errorf("%w: backoff multiplier cannot be negative, got %g", ErrInvalidOptions, o.BackoffMultiplier)
	}
	return nil
}

// WithDefaults returns a copy of o with every zero value replaced by its default.
func (o Options) WithDefaults() Options {
	if o.MaxBatchSize == 0 {
		o.MaxBatchSize = DefaultBatchSize
	}
	if o.MaxConcurrency == 0 {
		o.MaxConcurrency = DefaultConcurrency
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = DefaultRetryAttempts
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.EnableOptimization == nil {
		o.EnableOptimization = Bool(true)
	}
	return o
}

// OptimizationEnabled reports whether duplicate removal is on.
func (o Options) OptimizationEnabled() bool {
	return o.EnableOptimization == nil || *o.EnableOptimization
}

// retrier builds the per-item retry policy from the options.
func (o Options) retrier() Retrier {
	return Retrier{
		Attempts:   o.RetryAttempts,
		Delay:      o.RetryDelay,
		Multiplier: o.BackoffMultiplier,
		MaxDelay:   o.MaxRetryDelay,
	}
}
