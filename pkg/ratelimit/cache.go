package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key        string
	bucket     *bucket
	lastAccess time.Time
}

// bucketCache is a size-bounded map of buckets with expire-after-access
// semantics. The list is kept in access order (front = most recent), which
// serves both LRU eviction and idle expiry from the back.
type bucketCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List
	max      int
	idle     time.Duration
	capacity int64

	hits      uint64
	misses    uint64
	evictions uint64
}

func newBucketCache(max int, idle time.Duration, capacity int64) *bucketCache {
	return &bucketCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		max:      max,
		idle:     idle,
		capacity: capacity,
	}
}

// get returns the live bucket for key, creating a full one when the key is
// absent or has been idle for at least the idle TTL. Lookup and creation
// happen under one lock so concurrent first requests share one bucket.
func (c *bucketCache) get(key string, now time.Time) *bucket {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		if now.Sub(e.lastAccess) < c.idle {
			c.hits++
			e.lastAccess = now
			c.order.MoveToFront(el)
			return e.bucket
		}
		c.removeElement(el)
		c.evictions++
	}

	c.misses++
	e := &entry{key: key, bucket: newBucket(c.capacity), lastAccess: now}
	c.items[key] = c.order.PushFront(e)

	for c.max > 0 && c.order.Len() > c.max {
		c.removeElement(c.order.Back())
		c.evictions++
	}

	return e.bucket
}

// purge drops every entry idle for at least the TTL and reports how many
// were removed.
func (c *bucketCache) purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for el := c.order.Back(); el != nil; {
		e := el.Value.(*entry)
		if now.Sub(e.lastAccess) < c.idle {
			break
		}
		prev := el.Prev()
		c.removeElement(el)
		c.evictions++
		n++
		el = prev
	}
	return n
}

func (c *bucketCache) remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

func (c *bucketCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

func (c *bucketCache) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:          c.order.Len(),
		HitCount:      c.hits,
		MissCount:     c.misses,
		EvictionCount: c.evictions,
		HitRate:       1,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
		s.MissRate = float64(c.misses) / float64(total)
	}
	return s
}

func (c *bucketCache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	delete(c.items, e.key)
	c.order.Remove(el)
}
