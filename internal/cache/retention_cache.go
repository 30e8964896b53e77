package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = (*RetentionCache)(nil)

// RetentionCache drops entries that were not written for longer than the
// retention window. Every Set restarts the window of that key.
type RetentionCache struct {
	mainCache *gocache.Cache

	mutex     sync.Mutex
	deleting  bool
	onEvicted func(key string)
}

// NewRetentionCache creates a cache without a background janitor; expired
// entries are invisible to Get right away and are reclaimed by Sweep.
func NewRetentionCache(retention time.Duration) *RetentionCache {
	rc := &RetentionCache{
		mainCache: gocache.New(retention, 0),
	}
	rc.mainCache.OnEvicted(func(key string, _ interface{}) {
		// called synchronously from Delete/DeleteExpired, under rc.mutex
		if rc.deleting || rc.onEvicted == nil {
			return
		}
		rc.onEvicted(key)
	})
	return rc
}

// OnEvicted registers a callback for entries removed because their retention
// window passed. Explicit deletes do not trigger it.
func (rc *RetentionCache) OnEvicted(f func(key string)) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.onEvicted = f
}

func (rc *RetentionCache) Get(key string) (interface{}, bool) {
	return rc.mainCache.Get(key)
}

func (rc *RetentionCache) Set(key string, value interface{}) {
	rc.mainCache.Set(key, value, gocache.DefaultExpiration)
}

func (rc *RetentionCache) Delete(key string) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	rc.deleting = true
	rc.mainCache.Delete(key)
	rc.deleting = false
}

func (rc *RetentionCache) Keys() []string {
	items := rc.mainCache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

func (rc *RetentionCache) Len() int {
	return len(rc.mainCache.Items())
}

func (rc *RetentionCache) Clear() {
	rc.mainCache.Flush()
}

// Sweep reclaims expired entries.
func (rc *RetentionCache) Sweep() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.mainCache.DeleteExpired()
}
