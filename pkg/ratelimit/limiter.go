// Package ratelimit implements a per-identifier token bucket limiter.
//
// A bucket starts full and only ever drains. It is not refilled over time;
// instead its cache entry expires after Window without access and the next
// request for that identifier starts over with a full bucket.
package ratelimit

import (
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultCapacity   = 100
	DefaultWindow     = 100 * time.Second
	DefaultMaxEntries = 100_000
)

// Config controls a Limiter.
type Config struct {
	// Capacity is the number of requests a fresh bucket admits.
	Capacity int64

	// Window is both the refill period and the idle TTL of a bucket.
	Window time.Duration

	// MaxEntries bounds the number of tracked identifiers. The least
	// recently used bucket is dropped when the bound is exceeded.
	MaxEntries int

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a snapshot of the bucket cache counters.
type Stats struct {
	Size          int     `json:"size"`
	HitCount      uint64  `json:"hitCount"`
	MissCount     uint64  `json:"missCount"`
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	EvictionCount uint64  `json:"evictionCount"`
}

// Limiter decides admit or reject per identifier. It is safe for concurrent use.
type Limiter struct {
	capacity int64
	window   time.Duration
	now      func() time.Time
	cache    *bucketCache
}

// New builds a Limiter, filling zero Config fields with defaults.
func New(cfg Config) *Limiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Limiter{
		capacity: cfg.Capacity,
		window:   cfg.Window,
		now:      cfg.Now,
		cache:    newBucketCache(cfg.MaxEntries, cfg.Window, cfg.Capacity),
	}
}

// Capacity returns the size of a fresh bucket.
func (l *Limiter) Capacity() int64 { return l.capacity }

// Window returns the refill window.
func (l *Limiter) Window() time.Duration { return l.window }

// TryConsume spends one token from id's bucket and reports whether the
// request is admitted. It never blocks.
func (l *Limiter) TryConsume(id string) bool {
	return l.cache.get(id, l.now()).take()
}

// AvailableTokens reports the tokens left for id. Like every lookup it counts
// as an access and keeps the bucket alive.
func (l *Limiter) AvailableTokens(id string) int64 {
	return l.cache.get(id, l.now()).tokens()
}

// SecondsUntilRefill returns 0 while id has tokens left. An empty bucket
// reports the seconds until the next multiple of the window on the wall
// clock, so every exhausted identifier reports the same reset instant.
func (l *Limiter) SecondsUntilRefill(id string) int64 {
	now := l.now()
	if l.cache.get(id, now).tokens() > 0 {
		return 0
	}
	w := int64(l.window / time.Second)
	if w < 1 {
		w = 1
	}
	return w - now.Unix()%w
}

// Stats returns the current cache counters.
func (l *Limiter) Stats() Stats {
	return l.cache.stats()
}

// Remove forgets id so its next request gets a full bucket.
func (l *Limiter) Remove(id string) bool {
	return l.cache.remove(id)
}

// Clear forgets every identifier.
func (l *Limiter) Clear() {
	l.cache.clear()
}

// Cleanup drops buckets that have idled past the window and returns the
// number removed. Expired buckets are also replaced lazily on access; this
// only returns their memory sooner.
func (l *Limiter) Cleanup() int {
	return l.cache.purge(l.now())
}
