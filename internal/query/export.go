// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
)

// SeriesRef is the exported shape of a resolved series, handed to packages
// (stats, federation) that need the planner's series resolution without
// reaching into its unexported plannedSeries type.
type SeriesRef struct {
	SeriesID   uint64
	StreamID   uint64
	FoiID      uint64
	ResultTime codec.Instant
}

// PlanSeries resolves filter to the series it selects, the same planning
// pass Select uses, without opening per-series record iterators. Returns
// ErrDirectIDs if filter.InternalIDs is set, since a direct-id filter
// names observations, not series.
func PlanSeries(txn *engine.Txn, filter ObservationFilter) ([]SeriesRef, error) {
	pr, err := plan(txn, filter)
	if err != nil {
		return nil, err
	}
	if pr.DirectIDs != nil {
		return nil, errs.ErrDirectIDs
	}
	out := make([]SeriesRef, len(pr.Series))
	for i, ps := range pr.Series {
		out[i] = SeriesRef{SeriesID: ps.SeriesID, StreamID: ps.StreamID, FoiID: ps.FoiID, ResultTime: ps.ResultTime}
	}
	return out, nil
}

// ResolveSeries is the exported form of resolveSeriesInfo: looks up a bare
// seriesId's full SeriesRef without going through planning, for callers
// (federation) that already have a seriesId from another index.
func ResolveSeries(txn *engine.Txn, seriesID uint64) (SeriesRef, error) {
	ps, err := resolveSeriesInfo(txn, seriesID)
	if err != nil {
		return SeriesRef{}, err
	}
	return SeriesRef{SeriesID: ps.SeriesID, StreamID: ps.StreamID, FoiID: ps.FoiID, ResultTime: ps.ResultTime}, nil
}
