// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package engine wraps a single BadgerDB instance as the paged ordered map
// described in spec.md §3: an on-disk byte-sorted key/value store exposing
// get/put/remove, floor/ceiling seeks, and ordered range cursors, plus a
// single-writer transaction gate with rollback-on-error semantics. Nothing
// above this package ever imports badger directly, following the same
// seam the teacher draws around its BadgerWAL and BadgerSessionStore
// (internal/wal/wal.go, internal/auth/session_badger.go): callers speak in
// keys and byte slices, never in badger.Txn.
package engine
