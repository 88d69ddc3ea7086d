// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/store"
)

// entry is one decoded observation attached to the plannedSeries it came
// from, carrying the tie-break fields the k-way merge needs.
type entry struct {
	ps             plannedSeries
	phenomenonTime codec.Instant
	record         store.ObservationRecord
	publicID       []byte
}

// seriesIterator is the per-series lazy stream of spec.md §4.4: a pull
// model that advances at most one engine step per Next() call and never
// materializes more than its current entry.
type seriesIterator interface {
	Next() (entry, bool, error)
	Close()
}

func recordsNamespaceBounds(seriesID uint64) (lower, upper []byte) {
	l, u := codec.SeriesRecordBounds(seriesID)
	return codec.WithNamespace(codec.NSObsRecords, l), codec.WithNamespace(codec.NSObsRecords, u)
}

func recordKey(seriesID uint64, instant codec.Instant) []byte {
	return codec.WithNamespace(codec.NSObsRecords, codec.RecordKey(seriesID, instant))
}

func decodeObsEntry(ps plannedSeries, rawKey, rawVal []byte) (entry, error) {
	_, phenomenonTime, err := codec.DecodeRecordKey(rawKey[1:])
	if err != nil {
		return entry{}, err
	}
	var record store.ObservationRecord
	if err := json.Unmarshal(rawVal, &record); err != nil {
		return entry{}, err
	}
	return entry{
		ps:             ps,
		phenomenonTime: phenomenonTime,
		record:         record,
		publicID:       codec.PublicID(ps.SeriesID, phenomenonTime),
	}, nil
}

// rangeIterator walks a bounded [lower, upper) slice of one series'
// ObsRecords entries in ascending phenomenonTime order.
type rangeIterator struct {
	ps  plannedSeries
	cur *engine.Cursor
}

func newRangeIterator(txn *engine.Txn, ps plannedSeries, lower, upper []byte) *rangeIterator {
	return &rangeIterator{ps: ps, cur: txn.Cursor(lower, upper, false)}
}

func (r *rangeIterator) Next() (entry, bool, error) {
	if !r.cur.Valid() {
		return entry{}, false, nil
	}
	key := r.cur.Key()
	val, err := r.cur.Value()
	if err != nil {
		return entry{}, false, err
	}
	r.cur.Next()
	e, err := decodeObsEntry(r.ps, key, val)
	if err != nil {
		return entry{}, false, err
	}
	return e, true, nil
}

func (r *rangeIterator) Close() { r.cur.Close() }

// singleIterator emits at most one record, resolved once up front by a
// Floor or Ceiling probe — used for currentTime/latestTime/at variants,
// where the per-series selection is a single key lookup rather than a
// range walk (spec.md §4.4).
type singleIterator struct {
	e      entry
	ok     bool
	served bool
}

func newSingleFromFloor(txn *engine.Txn, ps plannedSeries, at codec.Instant) (*singleIterator, error) {
	lower, upper := recordsNamespaceBounds(ps.SeriesID)
	key, err := txn.Floor(lower, upper, recordKey(ps.SeriesID, at))
	return buildSingle(txn, ps, key, err)
}

func newSingleExact(txn *engine.Txn, ps plannedSeries, at codec.Instant) (*singleIterator, error) {
	key := recordKey(ps.SeriesID, at)
	val, err := txn.Get(key)
	if err == errs.ErrNotFound {
		return &singleIterator{}, nil
	}
	if err != nil {
		return nil, err
	}
	e, err := decodeObsEntry(ps, key, val)
	if err != nil {
		return nil, err
	}
	return &singleIterator{e: e, ok: true}, nil
}

func buildSingle(txn *engine.Txn, ps plannedSeries, key []byte, err error) (*singleIterator, error) {
	if err == errs.ErrNotFound {
		return &singleIterator{}, nil
	}
	if err != nil {
		return nil, err
	}
	val, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	e, err := decodeObsEntry(ps, key, val)
	if err != nil {
		return nil, err
	}
	return &singleIterator{e: e, ok: true}, nil
}

func (s *singleIterator) Next() (entry, bool, error) {
	if s.served || !s.ok {
		return entry{}, false, nil
	}
	s.served = true
	return s.e, true, nil
}

func (s *singleIterator) Close() {}

// newSeriesIterator builds the per-series record stream for ps according
// to filter.PhenomenonTime, per spec.md §4.4's branch table. The
// currentTime/latestTime floor-probe behavior applies uniformly to every
// series regardless of whether its stored resultTime is the −∞ sensor
// marker or a real model-run value: both are just a bounded Floor/Ceiling
// call against that series' own key range, which is exactly the
// primitive spec.md §4.4 names for the sensor case and generalizes
// cleanly to the model-run case too.
func newSeriesIterator(txn *engine.Txn, ps plannedSeries, filter ObservationFilter) (seriesIterator, error) {
	lower, upper := recordsNamespaceBounds(ps.SeriesID)

	switch filter.PhenomenonTime.Kind {
	case CurrentTime:
		return newSingleFromFloor(txn, ps, codec.FromTime(filter.now()))
	case LatestTime:
		return newSingleFromFloor(txn, ps, codec.PosInf)
	case AtTime:
		return newSingleExact(txn, ps, codec.FromTime(filter.PhenomenonTime.At))
	case RangeTime:
		scanLower := recordKey(ps.SeriesID, codec.FromTime(filter.PhenomenonTime.Begin))
		scanUpper := recordKey(ps.SeriesID, codec.FromTime(filter.PhenomenonTime.End))
		if bytes.Compare(scanLower, lower) < 0 {
			scanLower = lower
		}
		if bytes.Compare(scanUpper, upper) > 0 {
			scanUpper = upper
		}
		return newRangeIterator(txn, ps, scanLower, scanUpper), nil
	default: // AllTimes
		return newRangeIterator(txn, ps, lower, upper), nil
	}
}
