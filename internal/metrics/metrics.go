// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WriteLatency tracks add/put/remove latency by operation.
	WriteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obsstore_write_duration_seconds",
			Help:    "Duration of add/put/remove operations against the observation store",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // add, put, remove, clear
	)

	// WriteErrors counts failed write-path transactions by taxonomy class.
	WriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsstore_write_errors_total",
			Help: "Total write-path failures by error class",
		},
		[]string{"operation", "class"}, // class: unknown_stream, transient, corruption
	)

	// QueryLatency tracks select/count/stats latency.
	QueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obsstore_query_duration_seconds",
			Help:    "Duration of select/count/statistics operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // select, count, stats, observed_fois
	)

	// QuerySeriesFanout records how many series a single query planned over.
	QuerySeriesFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "obsstore_query_series_fanout",
			Help:    "Number of series selected by the planner for a single query",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// QueryTooBroad counts queries rejected by the planner's safety cap.
	QueryTooBroad = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obsstore_query_too_broad_total",
			Help: "Total queries rejected because the resolved stream/foi set exceeded the planner cap",
		},
	)

	// SeriesCount is the current number of live series in the store.
	SeriesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "obsstore_series_count",
			Help: "Current number of live observation series",
		},
	)

	// ObservationCount is the current number of observation records.
	ObservationCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "obsstore_observation_count",
			Help: "Current number of observation records",
		},
	)

	// CompactionRuns counts completed compaction passes.
	CompactionRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obsstore_compaction_runs_total",
			Help: "Total number of completed compaction passes",
		},
	)

	// CompactionSeriesRemoved counts empty series removed by compaction.
	CompactionSeriesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obsstore_compaction_series_removed_total",
			Help: "Total number of empty series removed by compaction",
		},
	)

	// CompactionDuration tracks compaction pass duration.
	CompactionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "obsstore_compaction_duration_seconds",
			Help:    "Duration of a single compaction pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FederationDispatchErrors counts per-mount dispatch failures.
	FederationDispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsstore_federation_dispatch_errors_total",
			Help: "Total dispatch errors per backing store mount",
		},
		[]string{"mount"},
	)

	// FederationCircuitState exposes each mount's breaker state (0=closed, 1=half-open, 2=open).
	FederationCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "obsstore_federation_circuit_state",
			Help: "Circuit breaker state per federated mount (0=closed, 1=half-open, 2=open)",
		},
		[]string{"mount"},
	)
)
