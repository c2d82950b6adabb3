// Package batch applies an operation to a collection of keys in fixed-size batches.
//
// A Processor removes duplicate keys, splits the remainder into batches of at most
// MaxBatchSize items and runs each batch, in input order, with at most MaxConcurrency
// operations in flight. Key features:
//   - Per-item retry with a constant or growing delay between attempts
//   - Per-item error attribution (one failing item never affects its siblings)
//   - Progress tracking with percentage and ETA delivered to a callback
//   - Cooperative cancellation through a CancellationToken or the context
//
// Cancellation is polled at safe points: before each batch, before each queued
// item starts and once after the last batch. Operations already in flight are
// never preempted, but the call as a whole fails with ErrCancelled and every
// result computed so far is discarded.
package batch
