// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package engine

import (
	"bytes"

	"github.com/tomtom215/obsstore/internal/errs"
)

// Floor returns the greatest key k such that lower <= k <= key and k lies
// within [lower, upper), or ErrNotFound if no such key exists. This is the
// "paged ordered map" floorKey operation spec.md §2 item 2 assumes the
// underlying engine provides.
func (t *Txn) Floor(lower, upper, key []byte) ([]byte, error) {
	effUpper := minBound(upper, successor(key))
	c := t.Cursor(lower, effUpper, true)
	defer c.Close()
	if !c.Valid() {
		return nil, errs.ErrNotFound
	}
	return c.Key(), nil
}

// Ceiling returns the least key k such that key <= k < upper and k lies
// within [lower, upper), or ErrNotFound if no such key exists. The
// ceilingKey counterpart to Floor.
func (t *Txn) Ceiling(lower, upper, key []byte) ([]byte, error) {
	effLower := maxBound(lower, key)
	c := t.Cursor(effLower, upper, false)
	defer c.Close()
	if !c.Valid() {
		return nil, errs.ErrNotFound
	}
	return c.Key(), nil
}

// CountRange counts the entries in [lower, upper). It backs the rank
// arithmetic of spec.md §4.4/§4.5: the spec's assumed engine exposes an
// O(log n) rankOf(key); badger's LSM tree has no native order-statistics
// index, so this package approximates rank as a bounded forward scan. Every
// caller bounds lower/upper to a single series' own key range
// (codec.SeriesRecordBounds), so the scan cost is O(series size), not
// O(store size) — acceptable for the sensor-series cardinalities this
// engine targets, but not the true O(log n) the spec's black-box map
// promises. See DESIGN.md for the tradeoff.
func (t *Txn) CountRange(lower, upper []byte) (int64, error) {
	c := t.Cursor(lower, upper, false)
	defer c.Close()
	var n int64
	for c.Valid() {
		n++
		c.Next()
	}
	return n, nil
}

// Rank returns the 1-based ordinal position of key among the entries in
// [scopeLower, key], i.e. the count of entries <= key starting at
// scopeLower. Differences of Rank across two keys k1 < k2 sharing the same
// scope give the count of entries in (k1, k2], the arithmetic
// getStatistics (spec.md §4.5) and countMatchingEntries (spec.md §4.4)
// build their O(log n)-shaped formulas on.
func (t *Txn) Rank(scopeLower, key []byte) (int64, error) {
	return t.CountRange(scopeLower, successor(key))
}

// successor returns key||0x00, the lexicographically smallest byte string
// strictly greater than key, used to turn an inclusive upper bound into
// Cursor's exclusive one.
func successor(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	return out
}

func minBound(a, b []byte) []byte {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case bytes.Compare(a, b) <= 0:
		return a
	default:
		return b
	}
}

func maxBound(a, b []byte) []byte {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case bytes.Compare(a, b) >= 0:
		return a
	default:
		return b
	}
}
