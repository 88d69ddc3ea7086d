// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package stats

import (
	"time"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/metrics"
	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/store"
)

// Query is the shape of spec.md §4.5's getStatistics input: the same
// series-selection dimensions as query.ObservationFilter, plus the
// histogram/aggregation knobs unique to statistics.
type Query struct {
	StreamIDs []uint64
	FoiIDs    []uint64

	PhenomenonTime query.TemporalFilter
	ResultTime     query.TemporalFilter

	// AggregateFois sums per-foi stats into one row per (streamId,
	// resultTime) instead of one row per (streamId, foiId, resultTime).
	AggregateFois bool

	// IncludeHistogram requests obsCountByTime; without it only
	// totalObsCount and the time ranges are computed.
	IncludeHistogram bool

	// BinWidth fixes the histogram bin width; zero auto-selects one via
	// ChooseBinWidth.
	BinWidth time.Duration

	MaxSeries int
	Now       func() time.Time
}

// ObsStats is one row of spec.md §4.5's getStatistics result.
type ObsStats struct {
	StreamID uint64
	// FoiID is zero when the row was produced by AggregateFois.
	FoiID uint64

	ResultTime          time.Time
	PhenomenonTimeRange [2]time.Time
	ResultTimeRange     [2]time.Time

	TotalObsCount int64

	BinWidth       time.Duration
	ObsCountByTime []Bucket
}

// Engine computes statistics over a store's indexes.
type Engine struct {
	st    *store.Store
	cache *bucketCache
}

// NewEngine builds a statistics Engine over st.
func NewEngine(st *store.Store) *Engine {
	return &Engine{st: st, cache: newBucketCache(defaultBucketCacheTTL)}
}

// GetStatistics implements spec.md §4.5: resolve q to a series set with the
// same planner the query package uses, then compute each row's
// totalObsCount (and optional histogram) via rank arithmetic instead of
// decoding every record.
func (e *Engine) GetStatistics(q Query) ([]ObsStats, error) {
	start := time.Now()
	defer func() { metrics.QueryLatency.WithLabelValues("stats").Observe(time.Since(start).Seconds()) }()

	txn := e.st.Engine().NewReadTxn()
	defer txn.Close()

	filter := query.ObservationFilter{
		StreamIDs:      q.StreamIDs,
		FoiIDs:         q.FoiIDs,
		PhenomenonTime: q.PhenomenonTime,
		ResultTime:     q.ResultTime,
		MaxSeries:      q.MaxSeries,
		Now:            q.Now,
	}
	refs, err := query.PlanSeries(txn, filter)
	if err != nil {
		return nil, err
	}

	if !q.AggregateFois {
		out := make([]ObsStats, 0, len(refs))
		for _, ref := range refs {
			row, err := e.statsForSeries(txn, ref, q)
			if err != nil {
				return nil, err
			}
			if row != nil {
				out = append(out, *row)
			}
		}
		return out, nil
	}
	return e.aggregateByStreamAndResultTime(txn, refs, q)
}

func (e *Engine) statsForSeries(txn *engine.Txn, ref query.SeriesRef, q Query) (*ObsStats, error) {
	lower, upper := phenomenonScanBounds(ref.SeriesID, q.PhenomenonTime)
	count, first, last, ok, err := rangeStats(txn, ref.SeriesID, lower, upper)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	row := &ObsStats{
		StreamID:            ref.StreamID,
		FoiID:               ref.FoiID,
		ResultTime:          instantToTime(ref.ResultTime),
		PhenomenonTimeRange: [2]time.Time{first.Time(), last.Time()},
		ResultTimeRange:     [2]time.Time{instantToTime(ref.ResultTime), instantToTime(ref.ResultTime)},
		TotalObsCount:       count,
	}
	if q.IncludeHistogram {
		buckets, width, err := buildHistogram(txn, e.cache, ref.SeriesID, lower, upper, first, last, q.BinWidth)
		if err != nil {
			return nil, err
		}
		row.ObsCountByTime = buckets
		row.BinWidth = width
	}
	return row, nil
}

type groupKey struct {
	streamID   uint64
	resultTime codec.Instant
}

type groupMember struct {
	ref          query.SeriesRef
	lower, upper []byte
	first, last  codec.Instant
	count        int64
}

// aggregateByStreamAndResultTime implements spec.md §4.5's aggregateFois
// mode: sum totalObsCount across every foi sharing a (streamId, resultTime)
// key, and when a histogram is requested, build it over one shared bin
// grid derived from the group's combined observed range rather than
// merging each member's independently-chosen grid — spec.md §8's open
// question about mixed bin widths across foi is resolved by never letting
// them diverge in the first place.
func (e *Engine) aggregateByStreamAndResultTime(txn *engine.Txn, refs []query.SeriesRef, q Query) ([]ObsStats, error) {
	groups := make(map[groupKey][]groupMember)
	var order []groupKey

	for _, ref := range refs {
		lower, upper := phenomenonScanBounds(ref.SeriesID, q.PhenomenonTime)
		count, first, last, ok, err := rangeStats(txn, ref.SeriesID, lower, upper)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		k := groupKey{streamID: ref.StreamID, resultTime: ref.ResultTime}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], groupMember{ref: ref, lower: lower, upper: upper, first: first, last: last, count: count})
	}

	out := make([]ObsStats, 0, len(order))
	for _, k := range order {
		members := groups[k]
		row, err := mergeGroup(txn, e.cache, k.streamID, k.resultTime, members, q)
		if err != nil {
			return nil, err
		}
		if row != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func mergeGroup(txn *engine.Txn, cache *bucketCache, streamID uint64, resultTime codec.Instant, members []groupMember, q Query) (*ObsStats, error) {
	if len(members) == 0 {
		return nil, nil
	}

	var total int64
	first, last := members[0].first, members[0].last
	for _, m := range members {
		total += m.count
		if m.first.Compare(first) < 0 {
			first = m.first
		}
		if m.last.Compare(last) > 0 {
			last = m.last
		}
	}

	row := &ObsStats{
		StreamID:            streamID,
		ResultTime:          instantToTime(resultTime),
		PhenomenonTimeRange: [2]time.Time{first.Time(), last.Time()},
		ResultTimeRange:     [2]time.Time{instantToTime(resultTime), instantToTime(resultTime)},
		TotalObsCount:       total,
	}
	if !q.IncludeHistogram {
		return row, nil
	}

	span := last.Time().Sub(first.Time())
	width := q.BinWidth
	if width <= 0 {
		width = ChooseBinWidth(span)
	}
	n := int64(span/width) + 1
	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Start = first.Time().Add(time.Duration(i) * width)
	}
	for _, m := range members {
		for i := range buckets {
			binEnd := first.Time().Add(time.Duration(i+1) * width)
			c, err := cachedBinCount(txn, cache, m.ref.SeriesID, m.lower, m.upper, buckets[i].Start, binEnd)
			if err != nil {
				return nil, err
			}
			buckets[i].Count += c
		}
	}
	row.ObsCountByTime = buckets
	row.BinWidth = width
	return row, nil
}

func instantToTime(i codec.Instant) time.Time {
	if !i.IsReal() {
		return time.Time{}
	}
	return i.Time()
}
