// Package pinterest maps pin and board operations onto the batch engine.
//
// An Engine is created per API-client session. It owns the result cache for
// that session: get operations consult the cache before calling the client and
// store what they fetch, while update and delete operations always reach the
// client and evict the affected key.
package pinterest
