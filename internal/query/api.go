// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/obsstore/internal/errs"
	"github.com/tomtom215/obsstore/internal/metrics"
)

// SelectEntries is Select under the name spec.md §6 gives the public
// ObsStore method (opaqueId, observation) pairs.
func (e *Executor) SelectEntries(filter ObservationFilter) (*Result, error) {
	return e.Select(filter)
}

// KeysResult projects a Result down to just its opaque ids.
type KeysResult struct{ r *Result }

// SelectKeys is spec.md §6's selectKeys: the same merge, projected to
// opaque ids only.
func (e *Executor) SelectKeys(filter ObservationFilter) (*KeysResult, error) {
	r, err := e.Select(filter)
	if err != nil {
		return nil, err
	}
	return &KeysResult{r: r}, nil
}

// Next returns the next opaque id, or ok=false when exhausted.
func (k *KeysResult) Next() ([]byte, bool, error) {
	obs, ok, err := k.r.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return obs.ID, true, nil
}

// Close releases the underlying Result.
func (k *KeysResult) Close() { k.r.Close() }

// ResultsResult projects a Result down to just its decoded result
// payloads.
type ResultsResult struct{ r *Result }

// SelectResults is spec.md §6's selectResults: the same merge, projected
// to each observation's result payload only.
func (e *Executor) SelectResults(filter ObservationFilter) (*ResultsResult, error) {
	r, err := e.Select(filter)
	if err != nil {
		return nil, err
	}
	return &ResultsResult{r: r}, nil
}

// Next returns the next result payload, or ok=false when exhausted.
func (rr *ResultsResult) Next() (json.RawMessage, bool, error) {
	obs, ok, err := rr.r.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return obs.Record.Result, true, nil
}

// Close releases the underlying Result.
func (rr *ResultsResult) Close() { rr.r.Close() }

// SelectObservedFois implements spec.md §4.4: for each selected series
// with a non-empty phenomenonTime intersection, emit its foiId distinct.
// Series selection and phenomenonTime narrowing reuse the same planner
// and per-series iterator the main select path uses; this just checks
// "does this series contribute at least one record" instead of decoding
// every one.
func (e *Executor) SelectObservedFois(filter ObservationFilter) ([]uint64, error) {
	start := time.Now()
	defer func() {
		metrics.QueryLatency.WithLabelValues("observed_fois").Observe(time.Since(start).Seconds())
	}()

	txn := e.st.Engine().NewReadTxn()
	defer txn.Close()

	pr, err := plan(txn, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{})
	var order []uint64
	addFoi := func(id uint64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			order = append(order, id)
		}
	}

	if pr.DirectIDs != nil {
		for _, id := range pr.DirectIDs {
			obs, err := e.st.Get(id)
			if err == errs.ErrNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			addFoi(obs.Record.FoiID)
		}
		return order, nil
	}

	for _, ps := range pr.Series {
		it, err := newSeriesIterator(txn, ps, filter)
		if err != nil {
			return nil, err
		}
		_, ok, err := it.Next()
		it.Close()
		if err != nil {
			return nil, err
		}
		if ok {
			addFoi(ps.FoiID)
		}
	}
	return order, nil
}
