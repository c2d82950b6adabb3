package batch

import (
	"errors"
	"sync"
)

// ErrCancelled matches every error produced by a cancelled batch run.
var ErrCancelled = errors.New("operation cancelled")

// CancelledError is returned when a batch run stops on cancellation.
type CancelledError struct {
	Reason string

	// Cause is the context error when the run stopped because ctx was done.
	Cause error
}

func (e *CancelledError) Error() string {
	return "Operation cancelled: " + e.Reason
}

// Is makes errors.Is(err, ErrCancelled) hold for every CancelledError.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// CancellationToken is a one-way, cooperative abort signal.
// It is created per call and cannot be reset once cancelled.
// The zero value is not usable; use NewCancellationToken.
type CancellationToken struct {
	mu        sync.Mutex
	cancelled bool
	reason    string
	done      chan struct{}
}

// NewCancellationToken returns a token that is not cancelled.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Cancel flags the token with reason. Only the first call has an effect.
func (t *CancellationToken) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return
	}
	t.cancelled = true
	t.reason = reason
	close(t.done)
}

// IsCancelled reports whether Cancel has been called.
func (t *CancellationToken) IsCancelled() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the reason given to Cancel, or "" if not cancelled.
func (t *CancellationToken) Reason() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Done returns a channel that is closed when the token is cancelled.
// A nil token returns a nil channel, which never fires.
func (t *CancellationToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// Err returns a *CancelledError if the token is cancelled, nil otherwise.
// A nil token is never cancelled.
func (t *CancellationToken) Err() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cancelled {
		return nil
	}
	return &CancelledError{Reason: t.reason}
}
