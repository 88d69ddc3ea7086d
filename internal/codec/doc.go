// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package codec implements the bit-exact key encodings of spec.md §4.1: a
// fixed 12-byte Instant form that sorts correctly as unsigned lexicographic
// bytes (with −∞/+∞ sentinels), the three composite index keys, and the
// opaque public observation identifier. Nothing here depends on the engine
// or the registry; it is pure byte-layout code so the sort-order and
// round-trip invariants (spec.md §8, properties 1-2) can be tested in
// isolation.
package codec
