// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package compaction implements the empty-series GC pass SPEC_FULL.md
// supplements onto spec.md's storage model: a series is minted the first
// time a (streamId, foiId, resultTime) triple is observed and is never
// deleted by ordinary writes, so a stream with high series cardinality
// and churn (e.g. per-foi result-time runs that are each written once and
// never again) accumulates SeriesByStream/SeriesByFoi/SeriesInfo rows
// whose ObsRecords prefix is permanently empty. Service.RunOnce calls the
// store's CompactEmptySeries, which walks every SeriesByStream entry, finds
// series with no remaining records, and removes their index rows, grounded on internal/wal/compaction.go's suture-backed
// ticker loop in the teacher repo.
package compaction
