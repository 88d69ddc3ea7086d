// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package federation implements spec.md §4.7: the same read API over an
// ordered set of backing stores, each queried with a filter already
// narrowed to the stream/foi ids local to it, merged by phenomenonTime
// through the same k-way merge shape the query package uses intra-store.
// Writes target the single mount marked writable; every other mount is a
// read-only view.
package federation
