// Package cache provides the in-memory result cache owned by one engine instance.
//
// Entries are keyed by resource type and id and never expire: they live until
// the owning engine calls Clear or evicts a key after a mutation. Each store is
// independent; there is no process-wide cache.
package cache
