package batch

import (
	"errors"
	"fmt"
)

// ItemSuccess is the value produced for one item.
type ItemSuccess[T, R any] struct {
	Item  T
	Value R
}

// ItemError records an item that failed after its last attempt.
type ItemError[T any] struct {
	Item    T
	Err     error
	Attempt int
}

func (e ItemError[T]) Error() string {
	return fmt.Sprintf("item %v failed after %d attempt(s): %v", e.Item, e.Attempt, e.Err)
}

func (e ItemError[T]) Unwrap() error {
	return e.Err
}

// Optimizations reports the work avoided before dispatch.
type Optimizations struct {
	DuplicatesRemoved int
}

// Result aggregates the outcome of a batch run.
// Every unique input item appears exactly once, in Succeeded or in Errors,
// and both slices follow input order.
type Result[T, R any] struct {
	Succeeded     []ItemSuccess[T, R]
	Errors        []ItemError[T]
	Progress      Progress
	Optimizations Optimizations
}

// Values returns the successful values in input order.
func (r *Result[T, R]) Values() []R {
	values := make([]R, len(r.Succeeded))
	for i, s := range r.Succeeded {
		values[i] = s.Value
	}
	return values
}

// HasErrors reports whether any item failed.
func (r *Result[T, R]) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins every item error, or returns nil when all items succeeded.
func (r *Result[T, R]) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
