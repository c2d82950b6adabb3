package pinterest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/pinbatch/internal/engine/batch"
	"github.com/rshade/pinbatch/internal/engine/cache"
	"github.com/rshade/pinbatch/internal/logging"
)

// ErrNilClient is returned by NewEngine when no client is given.
var ErrNilClient = errors.New("pinterest client cannot be nil")

// Engine runs pin and board operations in batches for one client session.
type Engine struct {
	client Client
	opts   batch.Options
	cache  *cache.MemoryStore

	// fetches collapses concurrent cache misses for the same key.
	fetches singleflight.Group
}

// NewEngine creates an engine for client. opts are the defaults for every call.
func NewEngine(client Client, opts batch.Options) (*Engine, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		client: client,
		opts:   opts,
		cache:  cache.NewMemoryStore(),
	}, nil
}

// CallOption customizes a single ProcessPinBatch or ProcessBoardBatch call.
type CallOption func(*callConfig)

type callConfig struct {
	opts  batch.Options
	token *batch.CancellationToken
}

// WithCancellation lets the caller abort the call through token.
func WithCancellation(token *batch.CancellationToken) CallOption {
	return func(c *callConfig) {
		c.token = token
	}
}

// WithProgress registers a progress callback for the call.
func WithProgress(callback batch.ProgressCallback) CallOption {
	return func(c *callConfig) {
		c.opts.ProgressCallback = callback
	}
}

// WithOptions adjusts the batch options for the call.
func WithOptions(adjust func(*batch.Options)) CallOption {
	return func(c *callConfig) {
		adjust(&c.opts)
	}
}

// ProcessPinBatch applies op to every pin id.
// update is required for OperationUpdate and ignored otherwise. A delete
// succeeds with a nil *Pin. Unsupported operations and missing update data
// fail before the client is called.
func (e *Engine) ProcessPinBatch(
	ctx context.Context,
	ids []string,
	op Operation,
	update *PinUpdate,
	opts ...CallOption,
) (*batch.Result[string, *Pin], error) {
	operation, err := e.pinOperation(op, update)
	if err != nil {
		return nil, err
	}
	return process(ctx, e, ResourcePin, op, ids, operation, opts)
}

// ProcessBoardBatch applies op to every board id.
// update is required for OperationUpdate and ignored otherwise. A delete
// succeeds with a nil *Board. Unsupported operations, missing update data and
// invalid privacy values fail before the client is called.
func (e *Engine) ProcessBoardBatch(
	ctx context.Context,
	ids []string,
	op Operation,
	update *BoardUpdate,
	opts ...CallOption,
) (*batch.Result[string, *Board], error) {
	operation, err := e.boardOperation(op, update)
	if err != nil {
		return nil, err
	}
	return process(ctx, e, ResourceBoard, op, ids, operation, opts)
}

// ClearCache drops every cached get result.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// CacheStats reports the cached keys.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

func (e *Engine) pinOperation(op Operation, update *PinUpdate) (batch.Operation[string, *Pin], error) {
	switch op {
	case OperationGet:
		return cachedGet(e, ResourcePin, e.client.GetPin), nil
	case OperationUpdate:
		if update == nil || update.IsEmpty() {
			return nil, missingUpdate(ResourcePin)
		}
		data := *update
		return evicting(e, ResourcePin, func(ctx context.Context, id string) (*Pin, error) {
			return e.client.UpdatePin(ctx, id, data)
		}), nil
	case OperationDelete:
		return evicting(e, ResourcePin, func(ctx context.Context, id string) (*Pin, error) {
			return nil, e.client.DeletePin(ctx, id)
		}), nil
	default:
		return nil, &UnsupportedOperationError{Resource: ResourcePin, Operation: op}
	}
}

func (e *Engine) boardOperation(op Operation, update *BoardUpdate) (batch.Operation[string, *Board], error) {
	switch op {
	case OperationGet:
		return cachedGet(e, ResourceBoard, e.client.GetBoard), nil
	case OperationUpdate:
		if update == nil || update.IsEmpty() {
			return nil, missingUpdate(ResourceBoard)
		}
		data := *update
		if data.Privacy != nil {
			privacy, err := validatePrivacy(*data.Privacy)
			if err != nil {
				return nil, err
			}
			data.Privacy = &privacy
		}
		return evicting(e, ResourceBoard, func(ctx context.Context, id string) (*Board, error) {
			return e.client.UpdateBoard(ctx, id, data)
		}), nil
	case OperationDelete:
		return evicting(e, ResourceBoard, func(ctx context.Context, id string) (*Board, error) {
			return nil, e.client.DeleteBoard(ctx, id)
		}), nil
	default:
		return nil, &UnsupportedOperationError{Resource: ResourceBoard, Operation: op}
	}
}

// process runs operation over ids with the engine defaults adjusted by opts.
func process[R any](
	ctx context.Context,
	e *Engine,
	resource string,
	op Operation,
	ids []string,
	operation batch.Operation[string, R],
	opts []CallOption,
) (*batch.Result[string, R], error) {
	cfg := callConfig{opts: e.opts}
	for _, opt := range opts {
		opt(&cfg)
	}

	processor, err := batch.NewProcessor[string, R](cfg.opts)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Ctx(ctx).
		Str("component", "pinterest").
		Str("resource", resource).
		Str("operation", string(op)).
		Int("ids", len(ids)).
		Msg("processing batch")

	result, err := processor.Process(ctx, ids, operation, cfg.token)
	if err != nil {
		log.Warn().
			Ctx(ctx).
			Str("component", "pinterest").
			Str("resource", resource).
			Str("operation", string(op)).
			Err(err).
			Msg("batch aborted")
		return nil, err
	}

	log.Info().
		Ctx(ctx).
		Str("component", "pinterest").
		Str("resource", resource).
		Str("operation", string(op)).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Errors)).
		Int("duplicates_removed", result.Optimizations.DuplicatesRemoved).
		Msg("batch complete")

	return result, nil
}

// cachedGet serves ids from the engine cache and fetches only misses.
// Concurrent misses for one key share a single fetch; failed fetches are not cached.
func cachedGet[R any](
	e *Engine,
	resource string,
	fetch func(ctx context.Context, id string) (R, error),
) batch.Operation[string, R] {
	return batch.OperationFunc[string, R](func(ctx context.Context, id string) (R, error) {
		key := cache.NewKey(resource, id)
		if value, ok := cache.Lookup[R](e.cache, key); ok {
			logging.FromContext(ctx).Debug().
				Ctx(ctx).
				Str("component", "pinterest").
				Str("cache_key", key.String()).
				Msg("cache hit")
			return value, nil
		}

		shared, err, _ := e.fetches.Do(key.String(), func() (any, error) {
			// A fetch that finished between the lookup and Do already filled the cache.
			if entry, entryErr := e.cache.Entry(key); entryErr == nil {
				if value, ok := entry.Value.(R); ok {
					return value, nil
				}
			}

			value, fetchErr := fetch(ctx, id)
			if fetchErr != nil {
				return nil, fetchErr
			}
			if setErr := e.cache.Set(key, value); setErr != nil {
				logging.FromContext(ctx).Debug().
					Ctx(ctx).
					Str("component", "pinterest").
					Str("cache_key", key.String()).
					Err(setErr).
					Msg("result not cached")
			}
			return value, nil
		})

		var zero R
		if err != nil {
			return zero, err
		}
		value, ok := shared.(R)
		if !ok {
			return zero, fmt.Errorf("unexpected cached type %T for %s", shared, key)
		}
		return value, nil
	})
}

// evicting wraps a mutating call so a success drops the stale cache entry.
func evicting[R any](
	e *Engine,
	resource string,
	mutate func(ctx context.Context, id string) (R, error),
) batch.Operation[string, R] {
	return batch.OperationFunc[string, R](func(ctx context.Context, id string) (R, error) {
		value, err := mutate(ctx, id)
		if err != nil {
			return value, err
		}
		e.cache.Delete(cache.NewKey(resource, id))
		return value, nil
	})
}
