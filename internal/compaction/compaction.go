// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package compaction

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/obsstore/internal/logging"
	"github.com/tomtom215/obsstore/internal/metrics"
)

// DefaultInterval matches the teacher's WAL compactor default cadence: a
// background GC pass doesn't need to run more often than once a minute
// for the series-count churn this engine expects.
const DefaultInterval = time.Minute

// valueLogGCRatio matches badger's own recommended discard ratio for an
// opportunistic, no-harm-if-skipped rewrite pass.
const valueLogGCRatio = 0.5

// EmptySeriesCompactor is satisfied by *store.Store; kept as an interface
// so this package doesn't import store and can be unit-tested against a
// fake.
type EmptySeriesCompactor interface {
	CompactEmptySeries() (int64, error)
	RunValueLogGC(ratio float64) error
}

// Service is a suture.Service driving periodic empty-series GC, adapting
// the teacher's internal/wal.Compactor ticker-loop shape (run on an
// interval, also triggerable synchronously) to this engine's
// CompactEmptySeries.
type Service struct {
	store    EmptySeriesCompactor
	interval time.Duration
}

// NewService builds a compaction Service over store, ticking every
// interval. A non-positive interval falls back to DefaultInterval.
func NewService(store EmptySeriesCompactor, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{store: store, interval: interval}
}

// Serve implements suture.Service: runs RunOnce on every tick until ctx
// is canceled.
func (s *Service) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("compaction service started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("compaction pass failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's service identification in
// logs, matching the teacher's WAL services.
func (s *Service) String() string { return "compaction" }

// RunOnce performs a single empty-series GC pass, instrumented with the
// same counters/histogram the teacher's compactor records for WAL
// compaction. Exposed standalone so Store.Compact(ctx) can trigger a pass
// synchronously outside the ticker.
func (s *Service) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	removed, err := s.store.CompactEmptySeries()
	duration := time.Since(start)

	metrics.CompactionRuns.Inc()
	metrics.CompactionDuration.Observe(duration.Seconds())
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		metrics.CompactionSeriesRemoved.Add(float64(removed))
		logging.Info().Int64("series_removed", removed).Dur("duration", duration).Msg("compaction pass removed empty series")
	}

	if err := s.runValueLogGCWithRetry(ctx); err != nil {
		logging.Warn().Err(err).Msg("compaction pass: value log gc did not complete")
	}
	return removed, ctx.Err()
}

// runValueLogGCWithRetry retries a transient value-log GC failure with
// bounded exponential backoff, following the teacher's engine retry
// convention for errs.ErrTransient. badger.ErrNoRewrite (nothing to
// reclaim) is already folded into a nil return by Engine.RunValueLogGC, so
// every non-nil error reaching here is worth a retry.
func (s *Service) runValueLogGCWithRetry(ctx context.Context) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		return s.store.RunValueLogGC(valueLogGCRatio)
	}, bo)
}
