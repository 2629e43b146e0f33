// Package service implements the intrusion detection services: request
// rate tracking, behavior profiles, risk scoring, the event log, and the
// orchestrating engine.
package service

import (
	"sync"
	"time"
)

// RateTracker counts requests per source address in 60-second buckets.
//
// Buckets are keyed by the wall-clock minute, so "within the current
// 60-second bucket" means the current calendar minute, not a sliding
// window. Stale buckets are pruned lazily on write.
type RateTracker struct {
	mu      sync.Mutex
	buckets map[string]map[int64]int
	now     func() time.Time
}

// NewRateTracker creates an empty RateTracker.
func NewRateTracker() *RateTracker {
	return &RateTracker{
		buckets: make(map[string]map[int64]int),
		now:     time.Now,
	}
}

// Observe records one request from addr and returns the total recorded in
// the current minute bucket, including this one.
func (t *RateTracker) Observe(addr string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	minute := t.now().Unix() / 60

	addrBuckets, ok := t.buckets[addr]
	if !ok {
		addrBuckets = make(map[int64]int)
		t.buckets[addr] = addrBuckets
	}

	// Drop buckets older than the previous minute.
	for m := range addrBuckets {
		if m < minute-1 {
			delete(addrBuckets, m)
		}
	}

	addrBuckets[minute]++
	return addrBuckets[minute]
}

// Count returns the request count for addr in the current minute bucket
// without recording anything.
func (t *RateTracker) Count(addr string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	minute := t.now().Unix() / 60
	return t.buckets[addr][minute]
}
