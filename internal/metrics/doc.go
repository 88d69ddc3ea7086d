// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

// Package metrics registers the Prometheus instrumentation for the
// observation store: write/read latency, query fan-out size, compaction
// activity, and federation dispatch health. Counters and histograms are
// package-scope promauto values, following the pattern the teacher uses for
// its WAL and auth subsystems (internal/wal, internal/auth/jti_tracker.go).
package metrics
