// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package query implements spec.md §4.4: turning a declarative
// ObservationFilter into a set of per-series range scans over the
// observation indexes, then merging the resulting per-series streams into
// one globally phenomenon-time-ordered sequence through a stable k-way
// merge. Planning picks the smallest driving index (SeriesByStream,
// SeriesByFoi, or a full scan) the way internal/store's three correlated
// maps are laid out to support.
package query
