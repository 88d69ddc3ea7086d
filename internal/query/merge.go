// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package query

import "container/heap"

// feeder pairs a seriesIterator with its currently peeked entry, the pull
// model spec.md §9 describes: each Next() on the merge advances at most
// one underlying feeder by one step.
type feeder struct {
	it      seriesIterator
	peeked  entry
	hasNext bool
}

func newFeeder(it seriesIterator) (*feeder, error) {
	f := &feeder{it: it}
	if err := f.advance(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *feeder) advance() error {
	e, ok, err := f.it.Next()
	if err != nil {
		return err
	}
	f.peeked, f.hasNext = e, ok
	return nil
}

// feederHeap is a min-heap over feeders' peeked entries, ordered by
// phenomenonTime and tie-broken by (streamId, foiId) for a stable merge
// (spec.md §4.4, property 7).
type feederHeap []*feeder

func (h feederHeap) Len() int { return len(h) }
func (h feederHeap) Less(i, j int) bool {
	a, b := h[i].peeked, h[j].peeked
	if c := a.phenomenonTime.Compare(b.phenomenonTime); c != 0 {
		return c < 0
	}
	if a.ps.StreamID != b.ps.StreamID {
		return a.ps.StreamID < b.ps.StreamID
	}
	return a.ps.FoiID < b.ps.FoiID
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

// merger is the k-way merge-sort iterator over every selected series'
// per-series stream, yielding entries in non-decreasing phenomenonTime
// order.
type merger struct {
	h feederHeap
}

func newMerger(iters []seriesIterator) (*merger, error) {
	m := &merger{}
	for _, it := range iters {
		f, err := newFeeder(it)
		if err != nil {
			return nil, err
		}
		if f.hasNext {
			m.h = append(m.h, f)
		} else {
			it.Close()
		}
	}
	heap.Init(&m.h)
	return m, nil
}

func (m *merger) Next() (entry, bool, error) {
	if len(m.h) == 0 {
		return entry{}, false, nil
	}
	top := m.h[0]
	out := top.peeked
	if err := top.advance(); err != nil {
		return entry{}, false, err
	}
	if top.hasNext {
		heap.Fix(&m.h, 0)
	} else {
		heap.Pop(&m.h)
		top.it.Close()
	}
	return out, true, nil
}

func (m *merger) Close() {
	for _, f := range m.h {
		f.it.Close()
	}
	m.h = nil
}
