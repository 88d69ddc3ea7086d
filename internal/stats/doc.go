// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package stats implements spec.md §4.5's getStatistics: per-series
// totalObsCount and an optional obsCountByTime histogram, computed with
// the same rank-arithmetic probes (Floor/Ceiling/Rank) the query package
// uses for countMatchingEntries, rather than decoding and counting every
// record.
package stats
