package cache

import (
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionCache_GetSetDelete(t *testing.T) {
	rc := NewRetentionCache(time.Minute)

	rc.Set("calculations::all::u1", 1)
	rc.Set("calculations::latest::u1", 2)

	val, ok := rc.Get("calculations::all::u1")
	require.True(t, ok)
	assert.Equal(t, 1, val)
	assert.Equal(t, 2, rc.Len())

	keys := rc.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"calculations::all::u1", "calculations::latest::u1"}, keys)

	rc.Delete("calculations::all::u1")
	_, ok = rc.Get("calculations::all::u1")
	assert.False(t, ok)
	assert.Equal(t, 1, rc.Len())

	rc.Clear()
	assert.Equal(t, 0, rc.Len())
}

func TestRetentionCache_Expiry(t *testing.T) {
	rc := NewRetentionCache(30 * time.Millisecond)

	var evicted atomic.Int32
	rc.OnEvicted(func(string) {
		evicted.Add(1)
	})

	rc.Set("k1", "v1")
	rc.Set("k2", "v2")
	rc.Delete("k2") // explicit delete is not an eviction

	require.Eventually(t, func() bool {
		_, ok := rc.Get("k1")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, rc.Keys())

	rc.Sweep()
	assert.Equal(t, int32(1), evicted.Load())
}

func TestTestCache(t *testing.T) {
	tc := NewTestCache()
	tc.Set("b", 2)
	tc.Set("a", 1)
	assert.Equal(t, []string{"a", "b"}, tc.Keys())
	assert.Equal(t, 2, tc.Len())

	val, ok := tc.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, val)

	tc.Delete("a")
	_, ok = tc.Get("a")
	assert.False(t, ok)

	tc.Clear()
	assert.Zero(t, tc.Len())
}
