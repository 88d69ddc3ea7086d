// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"encoding/binary"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/metrics"
	"github.com/tomtom215/obsstore/internal/store"
)

// DefaultMaxSeries bounds how many series a single query may select
// before the planner rejects it with ErrTooBroad (spec.md §4.4).
const DefaultMaxSeries = 10_000

// BroadMultiplier bounds how many stream/foi ids a join may resolve
// before even attempting to enumerate series: spec.md §4.4 rejects a join
// whose id-set resolution would exceed 100x the series cap.
const BroadMultiplier = 100

// plannedSeries is one series the executor will open a per-series record
// stream over.
type plannedSeries struct {
	SeriesID   uint64
	StreamID   uint64
	FoiID      uint64
	ResultTime codec.Instant
}

// PlanResult is the planner's output: either a direct-id short-circuit or
// a resolved series set, per spec.md §4.4.
type PlanResult struct {
	DirectIDs [][]byte
	Series    []plannedSeries
}

// plan resolves filter into a PlanResult using the smallest available
// driving index (spec.md §4.4's table), inside txn so the selection is
// consistent with whatever snapshot the executor reads records from.
func plan(txn *engine.Txn, filter ObservationFilter) (PlanResult, error) {
	if len(filter.InternalIDs) > 0 {
		return PlanResult{DirectIDs: filter.InternalIDs}, nil
	}

	cap := filter.maxSeries()
	broadCap := cap * BroadMultiplier

	var series []plannedSeries
	var err error

	switch {
	case len(filter.StreamIDs) == 0 && len(filter.FoiIDs) == 0:
		series, err = fullScan(txn, filter, cap)
	case len(filter.StreamIDs) > 0 && len(filter.FoiIDs) == 0:
		if len(filter.StreamIDs) > broadCap {
			metrics.QueryTooBroad.Inc()
			return PlanResult{}, errs.ErrTooBroad
		}
		series, err = scanByStream(txn, filter, cap)
	case len(filter.StreamIDs) == 0 && len(filter.FoiIDs) > 0:
		if len(filter.FoiIDs) > broadCap {
			metrics.QueryTooBroad.Inc()
			return PlanResult{}, errs.ErrTooBroad
		}
		series, err = scanByFoi(txn, filter, cap, nil)
	default:
		if len(filter.FoiIDs) > broadCap {
			metrics.QueryTooBroad.Inc()
			return PlanResult{}, errs.ErrTooBroad
		}
		streamSet := make(map[uint64]struct{}, len(filter.StreamIDs))
		for _, id := range filter.StreamIDs {
			streamSet[id] = struct{}{}
		}
		series, err = scanByFoi(txn, filter, cap, streamSet)
	}
	if err != nil {
		return PlanResult{}, err
	}

	series = applyResultTimeSelection(series, filter)
	if len(series) > cap {
		metrics.QueryTooBroad.Inc()
		return PlanResult{}, errs.ErrTooBroad
	}
	metrics.QuerySeriesFanout.Observe(float64(len(series)))
	return PlanResult{Series: series}, nil
}

// fullScan implements the none/none row: every series in the store.
func fullScan(txn *engine.Txn, filter ObservationFilter, cap int) ([]plannedSeries, error) {
	lower := codec.NamespacePrefix(codec.NSSeriesByStream)
	upper := codec.NamespaceUpperBound(codec.NSSeriesByStream)
	c := txn.Cursor(lower, upper, false)
	defer c.Close()

	var out []plannedSeries
	for c.Valid() {
		key := c.Key()[1:] // strip namespace byte
		streamID, foiID, resultTime, err := codec.DecodeSeriesKey(key)
		if err != nil {
			return nil, err
		}
		val, err := c.Value()
		if err != nil {
			return nil, err
		}
		out = append(out, plannedSeries{
			SeriesID:   decodeSeriesIDValue(val),
			StreamID:   streamID,
			FoiID:      foiID,
			ResultTime: resultTime,
		})
		if len(out) > cap*BroadMultiplier {
			return nil, errs.ErrTooBroad
		}
		c.Next()
	}
	return out, nil
}

// scanByStream implements the yes/none row: range-scan SeriesByStream
// once per resolved streamId.
func scanByStream(txn *engine.Txn, filter ObservationFilter, cap int) ([]plannedSeries, error) {
	var out []plannedSeries
	for _, streamID := range filter.StreamIDs {
		lower := codec.WithNamespace(codec.NSSeriesByStream, codec.SeriesIDPrefix(streamID))
		upper := codec.WithNamespace(codec.NSSeriesByStream, codec.FixedIDUpperBound(streamID))
		c := txn.Cursor(lower, upper, false)
		for c.Valid() {
			key := c.Key()[1:]
			sid, foiID, resultTime, err := codec.DecodeSeriesKey(key)
			if err != nil {
				c.Close()
				return nil, err
			}
			val, err := c.Value()
			if err != nil {
				c.Close()
				return nil, err
			}
			out = append(out, plannedSeries{
				SeriesID:   decodeSeriesIDValue(val),
				StreamID:   sid,
				FoiID:      foiID,
				ResultTime: resultTime,
			})
			c.Next()
		}
		c.Close()
		if len(out) > cap*BroadMultiplier {
			return nil, errs.ErrTooBroad
		}
	}
	return out, nil
}

// scanByFoi implements both the none/yes row (streamFilter==nil) and the
// yes/yes row (streamSet non-nil, filtering decoded entries to streamId in
// the resolved set).
func scanByFoi(txn *engine.Txn, filter ObservationFilter, cap int, streamSet map[uint64]struct{}) ([]plannedSeries, error) {
	var out []plannedSeries
	for _, foiID := range filter.FoiIDs {
		lower := codec.WithNamespace(codec.NSSeriesByFoi, codec.SeriesIDPrefix(foiID))
		upper := codec.WithNamespace(codec.NSSeriesByFoi, codec.FixedIDUpperBound(foiID))
		c := txn.Cursor(lower, upper, false)
		for c.Valid() {
			key := c.Key()[1:]
			fid, streamID, resultTime, err := codec.DecodeSeriesByFoiKey(key)
			if err != nil {
				c.Close()
				return nil, err
			}
			if streamSet != nil {
				if _, ok := streamSet[streamID]; !ok {
					c.Next()
					continue
				}
			}
			val, err := c.Value()
			if err != nil {
				c.Close()
				return nil, err
			}
			out = append(out, plannedSeries{
				SeriesID:   decodeSeriesIDValue(val),
				StreamID:   streamID,
				FoiID:      fid,
				ResultTime: resultTime,
			})
			c.Next()
		}
		c.Close()
		if len(out) > cap*BroadMultiplier {
			return nil, errs.ErrTooBroad
		}
	}
	return out, nil
}

func decodeSeriesIDValue(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// applyResultTimeSelection narrows a candidate series set by
// filter.ResultTime. Range/At/AllTimes are simple membership tests;
// Current/Latest require looking at the whole candidate set at once,
// since "the current/latest result time" is only meaningful relative to
// the other result times present among the matching series (spec.md §4.5
// scenario S3: "resultTime=latestTime" picks the single most recent model
// run out of several candidates, not a per-series test in isolation).
func applyResultTimeSelection(series []plannedSeries, filter ObservationFilter) []plannedSeries {
	switch filter.ResultTime.Kind {
	case AllTimes:
		return series
	case RangeTime:
		begin := codec.FromTime(filter.ResultTime.Begin)
		end := codec.FromTime(filter.ResultTime.End)
		return filterSeries(series, func(ps plannedSeries) bool {
			return ps.ResultTime.Compare(begin) >= 0 && ps.ResultTime.Compare(end) < 0
		})
	case AtTime:
		at := codec.FromTime(filter.ResultTime.At)
		return filterSeries(series, func(ps plannedSeries) bool {
			return ps.ResultTime.Equal(at)
		})
	case CurrentTime:
		now := codec.FromTime(filter.now())
		var best codec.Instant
		found := false
		for _, ps := range series {
			if !ps.ResultTime.IsReal() || ps.ResultTime.Compare(now) > 0 {
				continue
			}
			if !found || ps.ResultTime.Compare(best) > 0 {
				best, found = ps.ResultTime, true
			}
		}
		if !found {
			return nil
		}
		return filterSeries(series, func(ps plannedSeries) bool {
			return ps.ResultTime.IsReal() && ps.ResultTime.Equal(best)
		})
	case LatestTime:
		var best codec.Instant
		found := false
		for _, ps := range series {
			if !ps.ResultTime.IsReal() {
				continue
			}
			if !found || ps.ResultTime.Compare(best) > 0 {
				best, found = ps.ResultTime, true
			}
		}
		if !found {
			return nil
		}
		return filterSeries(series, func(ps plannedSeries) bool {
			return ps.ResultTime.IsReal() && ps.ResultTime.Equal(best)
		})
	default:
		return series
	}
}

func filterSeries(series []plannedSeries, keep func(plannedSeries) bool) []plannedSeries {
	out := series[:0:0]
	for _, ps := range series {
		if keep(ps) {
			out = append(out, ps)
		}
	}
	return out
}

// resolveSeriesInfo is a convenience used by callers (stats, federation)
// that have a bare seriesId and need its full plannedSeries shape without
// going through planning.
func resolveSeriesInfo(txn *engine.Txn, seriesID uint64) (plannedSeries, error) {
	info, err := store.GetSeriesInfoTx(txn, seriesID)
	if err != nil {
		return plannedSeries{}, err
	}
	return plannedSeries{SeriesID: seriesID, StreamID: info.StreamID, FoiID: info.FoiID, ResultTime: info.ResultTime}, nil
}
