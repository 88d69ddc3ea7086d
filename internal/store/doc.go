// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package store implements the three correlated observation indexes of
// spec.md §4.3 (ObsRecords, SeriesByStream, SeriesByFoi) and the
// single-writer transaction gate of §4.6, composing internal/engine and
// internal/registry under one atomic write path the way the teacher wires
// its own cross-referenced sub-stores at open and then treats them as one
// unit (internal/auth/session_store_factory.go's factory composing a
// badger handle with multiple key-prefixed views over it).
package store
