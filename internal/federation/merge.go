// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package federation

import (
	"container/heap"

	"github.com/tomtom215/obsstore/internal/query"
	"github.com/tomtom215/obsstore/internal/store"
)

// feeder pairs one mount's query.Result with its currently peeked
// observation, the same pull-model shape query.feeder uses intra-store.
type feeder struct {
	mount   string
	r       *query.Result
	peeked  store.Observation
	hasNext bool
}

func newFeeder(mount string, r *query.Result) (*feeder, error) {
	f := &feeder{mount: mount, r: r}
	if err := f.advance(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *feeder) advance() error {
	obs, ok, err := f.r.Next()
	if err != nil {
		return err
	}
	f.peeked, f.hasNext = obs, ok
	return nil
}

// feederHeap is a min-heap over feeders' peeked observations, ordered by
// phenomenonTime and tie-broken by mount name for a deterministic merge.
type feederHeap []*feeder

func (h feederHeap) Len() int { return len(h) }
func (h feederHeap) Less(i, j int) bool {
	a, b := h[i].peeked, h[j].peeked
	at, bt := a.Record.PhenomenonTime, b.Record.PhenomenonTime
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return h[i].mount < h[j].mount
}
func (h feederHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *feederHeap) Push(x any)   { *h = append(*h, x.(*feeder)) }
func (h *feederHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Result is the federation-wide merged stream. Callers drive it with
// Next/Close exactly like query.Result.
type Result struct {
	h      feederHeap
	closed bool
}

func newResult(feeders []*feeder) *Result {
	r := &Result{}
	for _, f := range feeders {
		if f.hasNext {
			r.h = append(r.h, f)
		} else {
			f.r.Close()
		}
	}
	heap.Init(&r.h)
	return r
}

// Next returns the next observation in non-decreasing phenomenonTime
// order across every dispatched mount, or ok=false once every mount's
// stream is exhausted.
func (r *Result) Next() (store.Observation, bool, error) {
	if r.closed || len(r.h) == 0 {
		return store.Observation{}, false, nil
	}
	top := r.h[0]
	out := top.peeked
	if err := top.advance(); err != nil {
		return store.Observation{}, false, err
	}
	if top.hasNext {
		heap.Fix(&r.h, 0)
	} else {
		heap.Pop(&r.h)
		top.r.Close()
	}
	return out, true, nil
}

// Close releases every mount's own Result. Safe to call multiple times.
func (r *Result) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, f := range r.h {
		f.r.Close()
	}
	r.h = nil
}

// ToSlice drains the merged result into a slice; a convenience for small
// result sets and tests.
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
