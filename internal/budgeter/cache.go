package budgeter

import (
	"container/list"
	"sync"

	"github.com/standardbeagle/rup/internal/cidhash"
)

// tokenCache is a bounded, LRU-evicting cache of token counts keyed by the
// seeded 64-bit hash of the counted text, matching spec.md §4.3's "memoize in
// an LRU-style cache" requirement. It is the Go analogue of the original's
// moka::sync::Cache. Eviction policy is an implementation choice and never
// affects the externally-visible token count, only which entries are
// recomputed on a cache miss.
type tokenCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key   uint64
	count int
}

const defaultCacheCapacity = 100_000

func newTokenCache() *tokenCache {
	return &tokenCache{
		capacity: defaultCacheCapacity,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

func (c *tokenCache) get(text string) (int, bool) {
	key := cidhash.Hash64(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).count, true
}

func (c *tokenCache) put(text string, count int) {
	key := cidhash.Hash64(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).count = count
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, count: count})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
