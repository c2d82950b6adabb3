package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	key := NewKey("pin", "p1")
	assert.Equal(t, "pin:p1", key.String())
	require.NoError(t, key.Validate())

	assert.ErrorIs(t, NewKey("", "p1").Validate(), ErrInvalidCacheKey)
	assert.ErrorIs(t, NewKey("pin", " ").Validate(), ErrInvalidCacheKey)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	pin := NewKey("pin", "p1")
	board := NewKey("board", "p1")

	_, ok := s.Get(pin)
	assert.False(t, ok)

	require.NoError(t, s.Set(pin, "pin value"))
	require.NoError(t, s.Set(board, "board value"))

	value, ok := s.Get(pin)
	require.True(t, ok)
	assert.Equal(t, "pin value", value)

	value, ok = s.Get(board)
	require.True(t, ok)
	assert.Equal(t, "board value", value, "same id under another resource is a separate entry")

	entry, err := s.Entry(pin)
	require.NoError(t, err)
	assert.False(t, entry.CreatedAt.IsZero())

	_, err = s.Entry(NewKey("pin", "missing"))
	assert.ErrorIs(t, err, ErrCacheNotFound)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, []string{"board:p1", "pin:p1"}, stats.Keys)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	t.Run("InvalidKey", func(t *testing.T) {
		assert.ErrorIs(t, s.Set(Key{}, "x"), ErrInvalidCacheKey)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("Delete", func(t *testing.T) {
		s.Delete(board)
		s.Delete(NewKey("board", "never-set"))
		_, ok := s.Get(board)
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("Clear", func(t *testing.T) {
		s.Clear()
		stats := s.Stats()
		assert.Zero(t, stats.Size)
		assert.Empty(t, stats.Keys)
		assert.Zero(t, stats.Hits)
		assert.Zero(t, stats.Misses)
	})
}

func TestLookup(t *testing.T) {
	type pin struct{ ID string }

	s := NewMemoryStore()
	key := NewKey("pin", "p1")
	require.NoError(t, s.Set(key, &pin{ID: "p1"}))

	got, ok := Lookup[*pin](s, key)
	require.True(t, ok)
	assert.Equal(t, "p1", got.ID)

	_, ok = Lookup[string](s, key)
	assert.False(t, ok, "wrong type is a miss")

	_, ok = Lookup[*pin](s, NewKey("pin", "p2"))
	assert.False(t, ok)
}

func TestMemoryStore_Isolation(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()
	require.NoError(t, a.Set(NewKey("pin", "p1"), 1))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := NewKey("pin", fmt.Sprintf("p%d", i%10))
			_ = s.Set(key, i)
			_, _ = s.Get(key)
			_ = s.Stats()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}
