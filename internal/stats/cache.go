// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package stats

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// defaultBucketCacheTTL bounds how stale a cached bin count may be. A
// histogram bin's count only grows as new observations land in its
// range, so a short TTL trades a small amount of undercounting on a very
// recently written bin for skipping the Ceiling/Floor/Rank probes on
// every repeat query against the same (series, bin) pair — the shape a
// dashboard polling the same streamId's histogram produces.
const defaultBucketCacheTTL = 2 * time.Second

type bucketCacheEntry struct {
	count   int64
	expires time.Time
}

// bucketCache memoizes binCount results keyed by a xxhash of the bin's
// (seriesId, start, end) coordinates, per SPEC_FULL.md's DOMAIN STACK table
// entry for xxhash as the "histogram bucket-cache key" hash.
type bucketCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[uint64]bucketCacheEntry
}

func newBucketCache(ttl time.Duration) *bucketCache {
	return &bucketCache{ttl: ttl, m: make(map[uint64]bucketCacheEntry)}
}

func bucketCacheKey(seriesID uint64, binStart, binEnd time.Time) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], seriesID)
	binary.BigEndian.PutUint64(buf[8:16], uint64(binStart.UnixNano()))
	binary.BigEndian.PutUint64(buf[16:24], uint64(binEnd.UnixNano()))
	return xxhash.Sum64(buf[:])
}

func (c *bucketCache) get(key uint64) (int64, bool) {
	if c == nil {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || time.Now().After(e.expires) {
		return 0, false
	}
	return e.count, true
}

func (c *bucketCache) put(key uint64, count int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = bucketCacheEntry{count: count, expires: time.Now().Add(c.ttl)}
}
