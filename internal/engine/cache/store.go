package cache

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrInvalidCacheKey = errors.New("cache key requires a resource and an id")
)

// keySeparator joins resource and id in rendered keys.
const keySeparator = ":"

// Key identifies a cached value.
type Key struct {
	Resource string
	ID       string
}

// NewKey returns the key for id of the given resource type.
func NewKey(resource, id string) Key {
	return Key{Resource: resource, ID: id}
}

// String renders the key as "resource:id".
func (k Key) String() string {
	return k.Resource + keySeparator + k.ID
}

// Validate checks that both parts of the key are set.
func (k Key) Validate() error {
	if strings.TrimSpace(k.Resource) == "" || strings.TrimSpace(k.ID) == "" {
		return ErrInvalidCacheKey
	}
	return nil
}

// Entry is a single cached value.
type Entry struct {
	Value     any
	CreatedAt time.Time
}

// Stats describes the cache contents.
type Stats struct {
	// Size is the number of entries.
	Size int `json:"size"`

	// Keys lists every key as "resource:id", sorted.
	Keys []string `json:"keys"`

	// Hits and Misses count lookups since creation or the last Clear.
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// MemoryStore is a map-backed cache with no expiry.
// Safe for concurrent access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	hits    int64
	misses  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]Entry),
	}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	return entry.Value, true
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key Key, value any) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{Value: value, CreatedAt: time.Now()}
	return nil
}

// Entry returns the full entry stored under key.
// Returns ErrCacheNotFound if the key is absent. Does not count as a hit or miss.
func (s *MemoryStore) Entry(key Key) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, ErrCacheNotFound
	}
	return entry, nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *MemoryStore) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear removes every entry and resets the hit counters.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[Key]Entry)
	s.hits = 0
	s.misses = 0
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns the size, sorted keys and lookup counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	return Stats{
		Size:   len(s.entries),
		Keys:   keys,
		Hits:   s.hits,
		Misses: s.misses,
	}
}

// Lookup returns the value under key if it is present and of type V.
// A value of another type is reported as a miss.
func Lookup[V any](s *MemoryStore, key Key) (V, bool) {
	var zero V
	raw, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}
