package bootstrap

import (
	"sync"
	"time"
)

// DefaultMaxAge is how long a cached factory result stays fresh unless the
// registration overrides it.
const DefaultMaxAge = 5 * time.Minute

// ttlCache memoizes one registration's resolved dependency mapping across
// warm invocations. It guards a single slot: there is exactly one cache per
// registration, living for the whole process.
type ttlCache struct {
	mu       sync.Mutex
	enabled  bool
	maxAge   time.Duration
	value    map[string]interface{}
	storedAt time.Time
}

// newTTLCache creates the cache for one registration. A disabled cache
// bypasses storage entirely, so every read misses and every write is dropped.
func newTTLCache(enabled bool, maxAge time.Duration) *ttlCache {
	return &ttlCache{
		enabled: enabled,
		maxAge:  maxAge,
	}
}

// get returns the stored mapping while it is younger than maxAge. An entry at
// or past maxAge is treated as absent and left for set to overwrite.
func (c *ttlCache) get(now time.Time) (map[string]interface{}, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value == nil || now.Sub(c.storedAt) >= c.maxAge {
		return nil, false
	}
	return c.value, true
}

// set overwrites the slot with a freshly resolved mapping and its timestamp
func (c *ttlCache) set(value map[string]interface{}, now time.Time) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.storedAt = now
}

// clear drops the stored entry, forcing the next read to miss
func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = nil
	c.storedAt = time.Time{}
}
