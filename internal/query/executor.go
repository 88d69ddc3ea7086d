// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/obsstore/internal/codec"
	"github.com/tomtom215/obsstore/internal/engine"
	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/metrics"
	"github.com/tomtom215/obsstore/internal/store"
)

// Executor runs ObservationFilter queries against a Store's indexes.
type Executor struct {
	st *store.Store
	sf singleflight.Group
}

// NewExecutor builds an Executor over st.
func NewExecutor(st *store.Store) *Executor {
	return &Executor{st: st}
}

// Result is the lazy, pull-model sequence of (opaqueId, observation)
// pairs spec.md §2 describes select as returning. Callers must Close it,
// which releases the underlying read transaction and every cursor it
// opened (spec.md §9).
type Result struct {
	st        *store.Store
	txn       *engine.Txn
	m         *merger
	direct    [][]byte
	directIdx int
	valuePred ValuePredicate
	locPred   LocationPredicate
	limit     int
	emitted   int
	closed    bool
}

// Select plans and opens filter against the store, returning a Result the
// caller drives with Next/Close.
func (e *Executor) Select(filter ObservationFilter) (*Result, error) {
	start := time.Now()
	defer func() { metrics.QueryLatency.WithLabelValues("select").Observe(time.Since(start).Seconds()) }()

	txn := e.st.Engine().NewReadTxn()
	pr, err := plan(txn, filter)
	if err != nil {
		txn.Close()
		return nil, err
	}

	r := &Result{st: e.st, txn: txn, valuePred: filter.ValuePredicate, locPred: filter.PhenomenonLocation, limit: filter.Limit}
	if pr.DirectIDs != nil {
		r.direct = pr.DirectIDs
		return r, nil
	}

	iters := make([]seriesIterator, 0, len(pr.Series))
	for _, ps := range pr.Series {
		it, err := newSeriesIterator(txn, ps, filter)
		if err != nil {
			for _, o := range iters {
				o.Close()
			}
			txn.Close()
			return nil, err
		}
		iters = append(iters, it)
	}
	m, err := newMerger(iters)
	if err != nil {
		for _, o := range iters {
			o.Close()
		}
		txn.Close()
		return nil, err
	}
	r.m = m
	return r, nil
}

// Next returns the next matching (opaqueId, observation) pair in
// non-decreasing phenomenonTime order, applying post-filters and limit.
// It returns ok=false once the result is exhausted.
func (r *Result) Next() (store.Observation, bool, error) {
	if r.closed {
		return store.Observation{}, false, errs.ErrClosed
	}
	if r.limit > 0 && r.emitted >= r.limit {
		return store.Observation{}, false, nil
	}

	if r.direct != nil {
		for r.directIdx < len(r.direct) {
			id := r.direct[r.directIdx]
			r.directIdx++
			obs, err := r.st.Get(id)
			if err == errs.ErrNotFound {
				continue
			}
			if err != nil {
				return store.Observation{}, false, err
			}
			if !r.passesPostFilters(obs) {
				continue
			}
			r.emitted++
			return obs, true, nil
		}
		return store.Observation{}, false, nil
	}

	for {
		e, ok, err := r.m.Next()
		if err != nil {
			return store.Observation{}, false, err
		}
		if !ok {
			return store.Observation{}, false, nil
		}
		obs := store.Observation{ID: e.publicID, Record: e.record}
		if !r.passesPostFilters(obs) {
			continue
		}
		r.emitted++
		return obs, true, nil
	}
}

func (r *Result) passesPostFilters(obs store.Observation) bool {
	if r.valuePred != nil && !r.valuePred(obs.Record.Result) {
		return false
	}
	if r.locPred != nil && !r.locPred(obs.Record.SamplingGeometry) {
		return false
	}
	return true
}

// Close releases the result's read transaction and every open cursor.
// Safe to call multiple times.
func (r *Result) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.m != nil {
		r.m.Close()
	}
	r.txn.Close()
}

// ToSlice drains the result into a slice; a convenience for callers that
// don't need the streaming behavior (small result sets, tests).
func (r *Result) ToSlice() ([]store.Observation, error) {
	defer r.Close()
	var out []store.Observation
	for {
		obs, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, obs)
	}
}

// CountMatchingEntries implements spec.md §4.4: when no post-filter is
// active, sum rank(floor(upper)) - rank(ceiling(lower)) + 1 per series
// instead of materializing the merge; otherwise fall back to a full scan
// count.
func (e *Executor) CountMatchingEntries(filter ObservationFilter) (int64, error) {
	if key, ok := countCacheKey(filter); ok {
		v, err, _ := e.sf.Do(key, func() (any, error) {
			return e.countMatchingEntries(filter)
		})
		if err != nil {
			return 0, err
		}
		return v.(int64), nil
	}
	return e.countMatchingEntries(filter)
}

// countCacheKey builds a singleflight key for filter when every field is
// either comparable or absent, so two goroutines issuing the identical
// count query (a dashboard re-rendering the same totalObsCount, a planner
// probing the same series twice while building a stats row) collapse into
// one badger read instead of two. A filter carrying a ValuePredicate,
// LocationPredicate, or custom Now clock is never deduplicated: those
// fields aren't comparable, and a caller-supplied clock may legitimately
// differ between calls that otherwise look identical.
func countCacheKey(filter ObservationFilter) (string, bool) {
	if filter.ValuePredicate != nil || filter.PhenomenonLocation != nil || filter.Now != nil {
		return "", false
	}
	return fmt.Sprintf("%v|%v|%+v|%+v|%d|%d|%x",
		filter.StreamIDs, filter.FoiIDs, filter.PhenomenonTime, filter.ResultTime,
		filter.Limit, filter.MaxSeries, filter.InternalIDs), true
}

func (e *Executor) countMatchingEntries(filter ObservationFilter) (int64, error) {
	start := time.Now()
	defer func() { metrics.QueryLatency.WithLabelValues("count").Observe(time.Since(start).Seconds()) }()

	if filter.ValuePredicate != nil || filter.PhenomenonLocation != nil {
		r, err := e.Select(filter)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		var n int64
		for {
			_, ok, err := r.Next()
			if err != nil {
				return n, err
			}
			if !ok {
				return n, nil
			}
			n++
		}
	}

	txn := e.st.Engine().NewReadTxn()
	defer txn.Close()

	pr, err := plan(txn, filter)
	if err != nil {
		return 0, err
	}
	if pr.DirectIDs != nil {
		var n int64
		for _, id := range pr.DirectIDs {
			if _, err := e.st.Get(id); err == nil {
				n++
			}
		}
		return n, nil
	}

	var total int64
	for _, ps := range pr.Series {
		n, err := countSeries(txn, ps, filter)
		if err != nil {
			return total, err
		}
		total += n
	}
	if filter.Limit > 0 && total > int64(filter.Limit) {
		total = int64(filter.Limit)
	}
	return total, nil
}

// countSeries counts one series' contribution without materializing
// records, using the same Floor/Ceiling probes newSeriesIterator would
// open a range with, collapsed to a single Rank difference.
func countSeries(txn *engine.Txn, ps plannedSeries, filter ObservationFilter) (int64, error) {
	lower, upper := recordsNamespaceBounds(ps.SeriesID)

	switch filter.PhenomenonTime.Kind {
	case CurrentTime, LatestTime, AtTime:
		it, err := newSeriesIterator(txn, ps, filter)
		if err != nil {
			return 0, err
		}
		defer it.Close()
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	case RangeTime:
		scanLower := recordKey(ps.SeriesID, codec.FromTime(filter.PhenomenonTime.Begin))
		scanUpperKey := recordKey(ps.SeriesID, codec.FromTime(filter.PhenomenonTime.End))

		ceilKey, err := txn.Ceiling(lower, upper, scanLower)
		if err == errs.ErrNotFound {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}

		// Greatest real key strictly below the half-open range's upper
		// bound: Cursor already treats its upper argument as exclusive,
		// so a reverse walk bounded by scanUpperKey lands exactly there
		// without needing scanUpperKey's lexicographic predecessor.
		fc := txn.Cursor(lower, scanUpperKey, true)
		if !fc.Valid() {
			fc.Close()
			return 0, nil
		}
		floorKey := fc.Key()
		fc.Close()

		rCeil, err := txn.Rank(lower, ceilKey)
		if err != nil {
			return 0, err
		}
		rFloor, err := txn.Rank(lower, floorKey)
		if err != nil {
			return 0, err
		}
		if rFloor < rCeil {
			return 0, nil
		}
		return rFloor - rCeil + 1, nil
	default: // AllTimes
		return txn.CountRange(lower, upper)
	}
}
