package cache

import (
	"sort"
	"sync"
)

var _ Cache = (*TestCache)(nil)

// TestCache never expires anything.
type TestCache struct {
	cache map[string]interface{}
	mutex sync.Mutex
}

func NewTestCache() *TestCache {
	return &TestCache{
		cache: make(map[string]interface{}),
	}
}

func (tc *TestCache) Get(key string) (interface{}, bool) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	val, ok := tc.cache[key]
	return val, ok
}

func (tc *TestCache) Set(key string, value interface{}) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.cache[key] = value
}

func (tc *TestCache) Delete(key string) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	delete(tc.cache, key)
}

func (tc *TestCache) Keys() []string {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	keys := make([]string, 0, len(tc.cache))
	for k := range tc.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (tc *TestCache) Len() int {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return len(tc.cache)
}

func (tc *TestCache) Clear() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.cache = make(map[string]interface{})
}
