// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package stats

import (
	"bytes"
	"time"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/query"
)

// Bucket is one histogram bin: [Start, Start+Width) and its count.
type Bucket struct {
	Start time.Time
	Count int64
}

func seriesBounds(seriesID uint64) (lower, upper []byte) {
	l, u := codec.SeriesRecordBounds(seriesID)
	return codec.WithNamespace(codec.NSObsRecords, l), codec.WithNamespace(codec.NSObsRecords, u)
}

func recordKey(seriesID uint64, at codec.Instant) []byte {
	return codec.WithNamespace(codec.NSObsRecords, codec.RecordKey(seriesID, at))
}

// phenomenonScanBounds clamps a series' own record bounds to an explicit
// phenomenonTime range filter; any other TemporalKind leaves the series'
// full bounds untouched, so the observed data itself defines the stats
// range (spec.md §4.5: "phenomenon/result time ranges intersected with the
// filter" — an absent filter intersects with nothing).
func phenomenonScanBounds(seriesID uint64, tf query.TemporalFilter) (lower, upper []byte) {
	fullLower, fullUpper := seriesBounds(seriesID)
	if tf.Kind != query.RangeTime {
		return fullLower, fullUpper
	}
	lo := recordKey(seriesID, codec.FromTime(tf.Begin))
	hi := recordKey(seriesID, codec.FromTime(tf.End))
	if bytes.Compare(lo, fullLower) < 0 {
		lo = fullLower
	}
	if bytes.Compare(hi, fullUpper) > 0 {
		hi = fullUpper
	}
	return lo, hi
}

func decodeKeyInstant(key []byte) (codec.Instant, error) {
	_, instant, err := codec.DecodeRecordKey(key[1:])
	return instant, err
}

// rangeStats finds the count and the first/last real timestamps of the
// records in [lower, upper) (upper exclusive), via the same
// ceiling(lower)/floor(upper) + rank-difference formula spec.md §4.5 and
// §4.4 both describe. Every probe is bounded to the series' own key range
// (seriesBounds), so a key returned by Floor/Ceiling can never belong to a
// different series — the "if both keys belong to the same series" guard
// the spec's prose carries is structurally guaranteed here, not checked.
func rangeStats(txn *engine.Txn, seriesID uint64, lower, upper []byte) (count int64, first, last codec.Instant, ok bool, err error) {
	fullLower, fullUpper := seriesBounds(seriesID)

	ceilKey, err := txn.Ceiling(fullLower, fullUpper, lower)
	if err == errs.ErrNotFound {
		return 0, codec.Instant{}, codec.Instant{}, false, nil
	}
	if err != nil {
		return 0, codec.Instant{}, codec.Instant{}, false, err
	}

	fc := txn.Cursor(lower, upper, true)
	if !fc.Valid() {
		fc.Close()
		return 0, codec.Instant{}, codec.Instant{}, false, nil
	}
	floorKey := fc.Key()
	fc.Close()

	rCeil, err := txn.Rank(fullLower, ceilKey)
	if err != nil {
		return 0, codec.Instant{}, codec.Instant{}, false, err
	}
	rFloor, err := txn.Rank(fullLower, floorKey)
	if err != nil {
		return 0, codec.Instant{}, codec.Instant{}, false, err
	}
	if rFloor < rCeil {
		return 0, codec.Instant{}, codec.Instant{}, false, nil
	}

	firstInstant, err := decodeKeyInstant(ceilKey)
	if err != nil {
		return 0, codec.Instant{}, codec.Instant{}, false, err
	}
	lastInstant, err := decodeKeyInstant(floorKey)
	if err != nil {
		return 0, codec.Instant{}, codec.Instant{}, false, err
	}
	return rFloor - rCeil + 1, firstInstant, lastInstant, true, nil
}

// buildHistogram computes obsCountByTime for one series over [first, last]
// (both inclusive, real timestamps previously found by rangeStats), using
// binWidth or auto-selecting one via ChooseBinWidth when binWidth is zero.
// Each bin's count is the two-probe formula of spec.md §4.5: k1 =
// ceiling(binStart), k2 = floor(binEnd); count = rank(k2) - rank(k1) +
// (k2's timestamp == binEnd ? 0 : 1). Bin boundaries are computed
// arithmetically from first rather than clamped to last, and the bin count
// is floor(span/binWidth)+1 so last always lies before the final binEnd;
// the final
// bin's floor probe never lands exactly on its (unclamped, past-the-data)
// binEnd and the +1 branch always applies there — this is what keeps
// Σ obsCountByTime equal to totalObsCount (spec.md §8, invariant 6)
// without a special case for the last bin.
func buildHistogram(txn *engine.Txn, cache *bucketCache, seriesID uint64, scanLower, scanUpper []byte, first, last codec.Instant, binWidth time.Duration) ([]Bucket, time.Duration, error) {
	span := last.Time().Sub(first.Time())
	if binWidth <= 0 {
		binWidth = ChooseBinWidth(span)
	}
	n := int64(span/binWidth) + 1

	buckets := make([]Bucket, 0, n)
	for i := int64(0); i < n; i++ {
		binStart := first.Time().Add(time.Duration(i) * binWidth)
		binEnd := first.Time().Add(time.Duration(i+1) * binWidth)

		count, err := cachedBinCount(txn, cache, seriesID, scanLower, scanUpper, binStart, binEnd)
		if err != nil {
			return nil, 0, err
		}
		buckets = append(buckets, Bucket{Start: binStart, Count: count})
	}
	return buckets, binWidth, nil
}

// cachedBinCount serves a bin's count from cache when a fresh-enough entry
// exists, and populates the cache on a miss. The cache key folds in
// seriesID and the bin's exact boundaries, so a cache hit is only ever
// reused for the identical bin.
func cachedBinCount(txn *engine.Txn, cache *bucketCache, seriesID uint64, scanLower, scanUpper []byte, binStart, binEnd time.Time) (int64, error) {
	key := bucketCacheKey(seriesID, binStart, binEnd)
	if count, ok := cache.get(key); ok {
		return count, nil
	}
	count, err := binCount(txn, seriesID, scanLower, scanUpper, binStart, binEnd)
	if err != nil {
		return 0, err
	}
	cache.put(key, count)
	return count, nil
}

func binCount(txn *engine.Txn, seriesID uint64, scanLower, scanUpper []byte, binStart, binEnd time.Time) (int64, error) {
	fullLower, fullUpper := seriesBounds(seriesID)

	k1, err := txn.Ceiling(maxKey(scanLower, fullLower), scanUpper, recordKey(seriesID, codec.FromTime(binStart)))
	if err == errs.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	k2, err := txn.Floor(scanLower, minKey(scanUpper, fullUpper), recordKey(seriesID, codec.FromTime(binEnd)))
	if err == errs.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	rank1, err := txn.Rank(fullLower, k1)
	if err != nil {
		return 0, err
	}
	rank2, err := txn.Rank(fullLower, k2)
	if err != nil {
		return 0, err
	}
	if rank2 < rank1 {
		return 0, nil
	}

	k2Instant, err := decodeKeyInstant(k2)
	if err != nil {
		return 0, err
	}
	extra := int64(1)
	if k2Instant.Equal(codec.FromTime(binEnd)) {
		extra = 0
	}
	return rank2 - rank1 + extra, nil
}

func maxKey(a, b []byte) []byte {
	if bytes.Compare(a, b) >= 0 {
		return a
	}
	return b
}

func minKey(a, b []byte) []byte {
	if bytes.Compare(a, b) <= 0 {
		return a
	}
	return b
}
