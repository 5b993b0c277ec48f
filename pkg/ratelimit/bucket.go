package ratelimit

import "sync/atomic"

// bucket holds the tokens left for one identifier. It is never refilled in
// place; a full bucket replaces it once the cache entry idles out.
type bucket struct {
	available atomic.Int64
}

func newBucket(capacity int64) *bucket {
	b := &bucket{}
	b.available.Store(capacity)
	return b
}

// take removes one token if any remain. The compare-and-swap loop keeps two
// concurrent callers from both spending the last token.
func (b *bucket) take() bool {
	for {
		n := b.available.Load()
		if n <= 0 {
			return false
		}
		if b.available.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (b *bucket) tokens() int64 {
	return b.available.Load()
}
